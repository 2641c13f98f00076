package store

import (
	"database/sql"
	"path"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "modernc.org/sqlite"
)

func TestMigrateSQLiteIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", "file:migrate_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := Migrate(db, DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Migrate(db, DialectSQLite); err != nil {
		t.Fatalf("migrate second: %v", err)
	}

	var name string
	if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='contracts'`).Scan(&name); err != nil {
		t.Fatalf("expected contracts table: %v", err)
	}

	if _, err := db.Exec(`SELECT rules_digest FROM contracts`); err != nil {
		t.Fatalf("expected rules_digest column: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 migrations applied, got %d", count)
	}
}

func TestMigrateRejectsUnknownDialect(t *testing.T) {
	if err := Migrate(&sql.DB{}, Dialect("nope")); err == nil {
		t.Fatalf("expected error for unsupported dialect")
	}
}

func TestSchemaFiles(t *testing.T) {
	for dialect, d := range schemaDialects {
		files, err := schemaFiles(d.dir)
		if err != nil {
			t.Fatalf("list %s schema files: %v", dialect, err)
		}
		if len(files) != 2 || path.Base(files[0]) != "0001_contracts.sql" {
			t.Fatalf("unexpected %s schema files: %v", dialect, files)
		}
	}
}

func TestMigratePostgresSkipsAppliedVersions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS lexgen_schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO lexgen_schema_migrations`).
		WithArgs("0001_contracts", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO lexgen_schema_migrations`).
		WithArgs("0002_rules_digest", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`ALTER TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := Migrate(db, DialectPostgres); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMigrateRequiresDB(t *testing.T) {
	if err := Migrate(nil, DialectSQLite); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
