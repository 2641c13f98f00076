// Package pgstore is the Postgres contract store. It works with either the
// lib/pq ("postgres") or the pgx ("pgx") database/sql driver.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/davidahmann/lexgen/internal/store"
	"github.com/davidahmann/lexgen/pkg/types"
)

const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

const contractColumns = `id, jurisdiction, contract_type, requirements, description, payee_address, payer_address,
solidity_code, deploy_script, tests, contract_metadata, rules_digest, status, transaction_hash, contract_address,
created_at, updated_at`

type Store struct {
	db *sql.DB
}

// OpenPostgres opens dsn with driver DriverPQ or DriverPGX.
func OpenPostgres(driver, dsn string) (*Store, error) {
	switch driver {
	case "", DriverPQ:
		driver = DriverPQ
	case DriverPGX:
	default:
		return nil, fmt.Errorf("unsupported postgres driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

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
	row := s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM lexgen_contracts WHERE id = $1`, id)
	return scanContract(row)
}

func (s *Store) ListContracts(ctx context.Context, filter store.ContractFilter) ([]types.ContractRecord, error) {
	query := `SELECT ` + contractColumns + ` FROM lexgen_contracts`
	var (
		where []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Jurisdiction != "" {
		add("jurisdiction", filter.Jurisdiction)
	}
	if filter.ContractType != "" {
		add("contract_type", filter.ContractType)
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
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

	row := t.tx.QueryRowContext(ctx, `INSERT INTO lexgen_contracts(
  jurisdiction, contract_type, requirements, description, payee_address, payer_address,
  solidity_code, deploy_script, tests, contract_metadata, rules_digest, status, transaction_hash, contract_address,
  created_at, updated_at
) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING id`,
		rec.Jurisdiction, rec.ContractType, rec.Requirements,
		nullable(rec.Description), nullable(rec.PayeeAddress), nullable(rec.PayerAddress),
		rec.SolidityCode, rec.DeployScript, rec.Tests, metadata, nullable(rec.RulesDigest),
		string(rec.Status), nullable(rec.TransactionHash), nullable(rec.ContractAddress),
		rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	if err := row.Scan(&rec.ID); err != nil {
		return types.ContractRecord{}, &store.PersistenceError{Op: "create contract", Err: err}
	}
	rec.Metadata = store.DecodeMetadata(metadata)
	return rec, nil
}

func (t *Tx) GetContract(ctx context.Context, id int64) (types.ContractRecord, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM lexgen_contracts WHERE id = $1 FOR UPDATE`, id)
	return scanContract(row)
}

func (t *Tx) UpdateContract(ctx context.Context, rec types.ContractRecord) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE lexgen_contracts
SET status = $1, transaction_hash = $2, contract_address = $3, updated_at = $4
WHERE id = $5`,
		string(rec.Status), nullable(rec.TransactionHash), nullable(rec.ContractAddress), rec.UpdatedAt.UTC(), rec.ID,
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
		createdAt, updatedAt                       time.Time
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
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updatedAt.UTC()
	return rec, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
