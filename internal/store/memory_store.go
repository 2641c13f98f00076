package store

import (
	"context"
	"sort"
	"sync"

	"github.com/davidahmann/lexgen/pkg/types"
)

type InMemoryStore struct {
	mu sync.Mutex

	nextID    int64
	contracts map[int64]types.ContractRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		contracts: make(map[int64]types.ContractRecord),
	}
}

// WithTx runs fn against a staged view and applies the staged writes only
// when fn succeeds.
func (s *InMemoryStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{store: s, nextID: s.nextID, staged: map[int64]types.ContractRecord{}}
	if err := fn(tx); err != nil {
		return err
	}

	for id, rec := range tx.staged {
		s.contracts[id] = rec
	}
	s.nextID = tx.nextID
	return nil
}

func (s *InMemoryStore) CreateContract(ctx context.Context, rec types.ContractRecord) (types.ContractRecord, error) {
	var out types.ContractRecord
	err := s.WithTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.CreateContract(ctx, rec)
		return err
	})
	return out, err
}

func (s *InMemoryStore) GetContract(_ context.Context, id int64) (types.ContractRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.contracts[id]
	if !ok {
		return types.ContractRecord{}, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *InMemoryStore) ListContracts(_ context.Context, filter ContractFilter) ([]types.ContractRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []types.ContractRecord{}
	for _, rec := range s.contracts {
		if filter.Matches(rec) {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }

type memTx struct {
	store  *InMemoryStore
	nextID int64
	staged map[int64]types.ContractRecord
}

func (t *memTx) CreateContract(_ context.Context, rec types.ContractRecord) (types.ContractRecord, error) {
	t.nextID++
	rec.ID = t.nextID
	rec = copyRecord(rec)
	t.staged[rec.ID] = rec
	return copyRecord(rec), nil
}

func (t *memTx) GetContract(_ context.Context, id int64) (types.ContractRecord, error) {
	if rec, ok := t.staged[id]; ok {
		return copyRecord(rec), nil
	}
	if rec, ok := t.store.contracts[id]; ok {
		return copyRecord(rec), nil
	}
	return types.ContractRecord{}, ErrNotFound
}

func (t *memTx) UpdateContract(_ context.Context, rec types.ContractRecord) error {
	_, staged := t.staged[rec.ID]
	_, stored := t.store.contracts[rec.ID]
	if !staged && !stored {
		return ErrNotFound
	}
	t.staged[rec.ID] = copyRecord(rec)
	return nil
}

func copyRecord(rec types.ContractRecord) types.ContractRecord {
	rec.Metadata = rec.Metadata.Clone()
	return rec
}
