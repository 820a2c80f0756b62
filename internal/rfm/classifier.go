package rfm

import (
	"errors"
	"fmt"
	"strings"

	"rfm-lab/internal/domain"
)

var (
	// ErrScoreOutOfRange is returned when a score is outside 1..5.
	ErrScoreOutOfRange = errors.New("rfm score out of range")

	// ErrUnclassified is returned when no rule matches a score triple.
	// It always points at a defect in the rule table.
	ErrUnclassified = errors.New("rfm triple matched no segment rule")
)

// Rule maps score triples to a segment. Rules are evaluated in order and
// the first match wins.
type Rule struct {
	Segment   domain.Segment
	Condition string // human-readable predicate, reproduced in audit exports
	Match     func(r, f, m int) bool
}

// Rules is the segment precedence table, highest priority first.
var Rules = []Rule{
	{
		Segment:   domain.SegmentUltraChampions,
		Condition: "R=5 AND F=5 AND M=5",
		Match:     func(r, f, m int) bool { return r == 5 && f == 5 && m == 5 },
	},
	{
		Segment:   domain.SegmentChampions,
		Condition: "R>=4 AND F>=4 AND M>=4",
		Match:     func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 },
	},
	{
		Segment:   domain.SegmentLoyal,
		Condition: "R>=3 AND F>=3 AND M>=3",
		Match:     func(r, f, m int) bool { return r >= 3 && f >= 3 && m >= 3 },
	},
	{
		Segment:   domain.SegmentNew,
		Condition: "R>=4 AND F=3",
		Match:     func(r, f, _ int) bool { return r >= 4 && f == 3 },
	},
	{
		Segment:   domain.SegmentOccasional,
		Condition: "R=3 AND F=3",
		Match:     func(r, f, _ int) bool { return r == 3 && f == 3 },
	},
	{
		Segment:   domain.SegmentAtRisk,
		Condition: "F>=3 AND R<=2",
		Match:     func(r, f, _ int) bool { return f >= 3 && r <= 2 },
	},
	{
		Segment:   domain.SegmentLost,
		Condition: "otherwise",
		Match:     func(_, _, _ int) bool { return true },
	},
}

// Classify assigns the segment of a score triple using Rules.
func Classify(r, f, m int) (domain.Segment, error) {
	return ClassifyWith(Rules, r, f, m)
}

// ClassifyWith assigns the segment of a score triple using the given table.
func ClassifyWith(rules []Rule, r, f, m int) (domain.Segment, error) {
	if !validScore(r) || !validScore(f) || !validScore(m) {
		return "", fmt.Errorf("%w: (%d,%d,%d)", ErrScoreOutOfRange, r, f, m)
	}
	for _, rule := range rules {
		if rule.Match(r, f, m) {
			return rule.Segment, nil
		}
	}
	return "", fmt.Errorf("%w: (%d,%d,%d)", ErrUnclassified, r, f, m)
}

// ValidateRules enumerates all 125 score triples and checks that every one
// is classified, that every rule targets a known segment, and that no rule
// is shadowed by the ones above it.
func ValidateRules(rules []Rule) error {
	var problems []string

	for i, rule := range rules {
		if !rule.Segment.IsValid() {
			problems = append(problems, fmt.Sprintf("rule %d targets unknown segment %q", i+1, rule.Segment))
		}
		if rule.Match == nil {
			problems = append(problems, fmt.Sprintf("rule %d (%s) has no predicate", i+1, rule.Segment))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid rule table: %s", strings.Join(problems, "; "))
	}

	hits := make([]int, len(rules))
	var gaps []string
	for r := 1; r <= QuintileCount; r++ {
		for f := 1; f <= QuintileCount; f++ {
			for m := 1; m <= QuintileCount; m++ {
				matched := false
				for i, rule := range rules {
					if rule.Match(r, f, m) {
						hits[i]++
						matched = true
						break
					}
				}
				if !matched {
					gaps = append(gaps, fmt.Sprintf("(%d,%d,%d)", r, f, m))
				}
			}
		}
	}

	if len(gaps) > 0 {
		return fmt.Errorf("%w: %d triple(s) %s", ErrUnclassified, len(gaps), strings.Join(gaps, " "))
	}
	for i, n := range hits {
		if n == 0 {
			problems = append(problems, fmt.Sprintf("rule %d (%s) is unreachable", i+1, rules[i].Segment))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid rule table: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Assign classifies every scored profile. Any failure is a rule table defect
// and aborts the run.
func Assign(scored []domain.ScoredProfile) ([]domain.SegmentAssignment, error) {
	out := make([]domain.SegmentAssignment, len(scored))
	for i, p := range scored {
		seg, err := Classify(p.R, p.F, p.M)
		if err != nil {
			return nil, fmt.Errorf("classify customer %s: %w", p.CustomerID, err)
		}
		out[i] = domain.SegmentAssignment{ScoredProfile: p, Segment: seg}
	}
	return out, nil
}

func validScore(s int) bool {
	return s >= 1 && s <= QuintileCount
}
