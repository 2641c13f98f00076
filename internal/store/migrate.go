package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// schemaDialect holds what differs between the contract schemas of each
// database: where the SQL files live, the bookkeeping table and how a
// version row is written.
type schemaDialect struct {
	dir          string
	versionTable string
	appliedType  string
	placeholders [2]string
	appliedAt    func(time.Time) any
}

var schemaDialects = map[Dialect]schemaDialect{
	DialectSQLite: {
		dir:          "migrations/sqlite",
		versionTable: "schema_migrations",
		appliedType:  "TEXT",
		placeholders: [2]string{"?", "?"},
		appliedAt:    func(t time.Time) any { return t.Format(time.RFC3339) },
	},
	DialectPostgres: {
		dir:          "migrations/postgres",
		versionTable: "lexgen_schema_migrations",
		appliedType:  "TIMESTAMPTZ",
		placeholders: [2]string{"$1", "$2"},
		appliedAt:    func(t time.Time) any { return t },
	},
}

// Migrate brings the contracts schema up to date. Each embedded SQL file runs
// once in its own transaction together with its version row, so a second
// call on an up-to-date database changes nothing.
func Migrate(db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("migrate contracts schema: no database handle")
	}
	d, ok := schemaDialects[dialect]
	if !ok {
		return fmt.Errorf("migrate contracts schema: unsupported dialect %q", dialect)
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  version TEXT PRIMARY KEY,\n  applied_at %s NOT NULL\n)", d.versionTable, d.appliedType)
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create %s: %w", d.versionTable, err)
	}

	files, err := schemaFiles(d.dir)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, file := range files {
		version := strings.TrimSuffix(path.Base(file), ".sql")
		if err := applySchemaFile(db, d, file, version, now); err != nil {
			return fmt.Errorf("schema version %s: %w", version, err)
		}
	}
	return nil
}

func applySchemaFile(db *sql.DB, d schemaDialect, file, version string, now time.Time) error {
	body, err := migrationsFS.ReadFile(file)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	insert := fmt.Sprintf("INSERT INTO %s(version, applied_at) VALUES(%s, %s) ON CONFLICT(version) DO NOTHING",
		d.versionTable, d.placeholders[0], d.placeholders[1])
	res, err := tx.Exec(insert, version, d.appliedAt(now))
	if err != nil {
		return err
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if claimed == 0 {
		return nil
	}

	if _, err := tx.Exec(string(body)); err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	return tx.Commit()
}

// schemaFiles lists the SQL files of dir in version order.
func schemaFiles(dir string) ([]string, error) {
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			out = append(out, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
