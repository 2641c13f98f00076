// Package sqlstore is the SQLite contract store.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/davidahmann/lexgen/internal/store"
	"github.com/davidahmann/lexgen/pkg/types"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const contractColumns = `id, jurisdiction, contract_type, requirements, description, payee_address, payer_address,
solidity_code, deploy_script, tests, contract_metadata, rules_digest, status, transaction_hash, contract_address,
created_at, updated_at`

type Store struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return &store.PersistenceError{Op: "begin", Err: err}
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &store.PersistenceError{Op: "commit", Err: err}
	}
	return nil
}

func (s *Store) CreateContract(ctx context.Context, rec types.ContractRecord) (types.ContractRecord, error) {
	var out types.ContractRecord
	err := s.WithTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.CreateContract(ctx, rec)
		return err
	})
	return out, err
}

func (s *Store) GetContract(ctx context.Context, id int64) (types.ContractRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
	return scanContract(row)
}

func (s *Store) ListContracts(ctx context.Context, filter store.ContractFilter) ([]types.ContractRecord, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
	var (
		where []string
		args  []any
	)
	if filter.Jurisdiction != "" {
		where = append(where, "jurisdiction = ?")
		args = append(args, filter.Jurisdiction)
	}
	if filter.ContractType != "" {
		where = append(where, "contract_type = ?")
		args = append(args, filter.ContractType)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &store.PersistenceError{Op: "list contracts", Err: err}
	}
	defer rows.Close()

	out := []types.ContractRecord{}
	for rows.Next() {
		rec, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.PersistenceError{Op: "list contracts", Err: err}
	}
	return out, nil
}

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) CreateContract(ctx context.Context, rec types.ContractRecord) (types.ContractRecord, error) {
	metadata, err := store.EncodeMetadata(rec.Metadata)
	if err != nil {
		return types.ContractRecord{}, &store.PersistenceError{Op: "encode metadata", Err: err}
	}

	row := t.tx.QueryRowContext(ctx, `INSERT INTO contracts(
  jurisdiction, contract_type, requirements, description, payee_address, payer_address,
  solidity_code, deploy_script, tests, contract_metadata, rules_digest, status, transaction_hash, contract_address,
  created_at, updated_at
) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`,
		rec.Jurisdiction, rec.ContractType, rec.Requirements,
		nullable(rec.Description), nullable(rec.PayeeAddress), nullable(rec.PayerAddress),
		rec.SolidityCode, rec.DeployScript, rec.Tests, metadata, nullable(rec.RulesDigest),
		string(rec.Status), nullable(rec.TransactionHash), nullable(rec.ContractAddress),
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err := row.Scan(&rec.ID); err != nil {
		return types.ContractRecord{}, &store.PersistenceError{Op: "create contract", Err: err}
	}
	rec.Metadata = store.DecodeMetadata(metadata)
	return rec, nil
}

func (t *Tx) GetContract(ctx context.Context, id int64) (types.ContractRecord, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
	return scanContract(row)
}

func (t *Tx) UpdateContract(ctx context.Context, rec types.ContractRecord) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE contracts
SET status = ?, transaction_hash = ?, contract_address = ?, updated_at = ?
WHERE id = ?`,
		string(rec.Status), nullable(rec.TransactionHash), nullable(rec.ContractAddress), formatTime(rec.UpdatedAt), rec.ID,
	)
	if err != nil {
		return &store.PersistenceError{Op: "update contract", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &store.PersistenceError{Op: "update contract", Err: err}
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (types.ContractRecord, error) {
	var (
		rec                                        types.ContractRecord
		description, payee, payer                  sql.NullString
		code, script, tests, metadata, rulesDigest sql.NullString
		status                                     string
		txHash, address                            sql.NullString
		createdAt, updatedAt                       string
	)
	err := row.Scan(
		&rec.ID, &rec.Jurisdiction, &rec.ContractType, &rec.Requirements, &description, &payee, &payer,
		&code, &script, &tests, &metadata, &rulesDigest, &status, &txHash, &address,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ContractRecord{}, store.ErrNotFound
	}
	if err != nil {
		return types.ContractRecord{}, &store.PersistenceError{Op: "scan contract", Err: err}
	}

	rec.Description = description.String
	rec.PayeeAddress = payee.String
	rec.PayerAddress = payer.String
	rec.SolidityCode = code.String
	rec.DeployScript = script.String
	rec.Tests = tests.String
	rec.Metadata = store.DecodeMetadata(metadata.String)
	rec.RulesDigest = rulesDigest.String
	rec.Status = types.ContractStatus(status)
	rec.TransactionHash = txHash.String
	rec.ContractAddress = address.String

	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return types.ContractRecord{}, &store.PersistenceError{Op: "scan contract", Err: err}
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return types.ContractRecord{}, &store.PersistenceError{Op: "scan contract", Err: err}
	}
	return rec, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
