package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidahmann/lexgen/pkg/types"
)

// ErrNotFound is returned when an id does not resolve to a contract record.
var ErrNotFound = errors.New("contract not found")

// PersistenceError wraps a storage backend failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// ContractFilter narrows ListContracts. Empty fields match everything.
type ContractFilter struct {
	Jurisdiction string
	ContractType string
	Status       types.ContractStatus
}

func (f ContractFilter) Matches(rec types.ContractRecord) bool {
	if f.Jurisdiction != "" && rec.Jurisdiction != f.Jurisdiction {
		return false
	}
	if f.ContractType != "" && rec.ContractType != f.ContractType {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	return true
}

// Store persists contract records. Mutations go through WithTx; if fn returns
// an error nothing it wrote is kept.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error

	CreateContract(ctx context.Context, rec types.ContractRecord) (types.ContractRecord, error)
	GetContract(ctx context.Context, id int64) (types.ContractRecord, error)
	// ListContracts returns matching records newest first.
	ListContracts(ctx context.Context, filter ContractFilter) ([]types.ContractRecord, error)

	Close() error
}

type Tx interface {
	// CreateContract assigns the record id and returns the stored record.
	CreateContract(ctx context.Context, rec types.ContractRecord) (types.ContractRecord, error)
	GetContract(ctx context.Context, id int64) (types.ContractRecord, error)
	// UpdateContract overwrites the mutable fields of an existing record.
	UpdateContract(ctx context.Context, rec types.ContractRecord) error
}
