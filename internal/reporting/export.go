package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ExportJSON writes v as indented JSON to filename, creating parent directories.
func ExportJSON(filename string, v any) error {
	return WriteFile(filename, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	})
}

// WriteFile creates filename (and its directory) and fills it with render.
func WriteFile(filename string, render func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close file: %w", cerr)
		}
	}()

	return render(f)
}

// TimestampedFilename builds dir/name_YYYYMMDD_HHMMSS.ext.
func TimestampedFilename(dir, name, ext string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", name, at.UTC().Format("20060102_150405"), ext))
}
