package migrations

import "embed"

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// SQLFS embeds the SQLite and MySQL schemas, one directory per dialect.
//
//go:embed sqlite/*.sql mysql/*.sql
var SQLFS embed.FS
