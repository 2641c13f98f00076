// Package lifecycle owns contract status transitions. Any recognised status
// may follow any other; only the value itself is validated.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidahmann/lexgen/internal/metrics"
	"github.com/davidahmann/lexgen/internal/store"
	"github.com/davidahmann/lexgen/pkg/types"
	"go.uber.org/zap"
)

var (
	ErrInvalidStatus           = errors.New("invalid status")
	ErrDraftCarriesDeployment  = errors.New("a draft contract cannot carry a transaction hash or contract address")
	ErrTransactionHashRequired = errors.New("transaction hash is required")
)

// Statuses lists the recognised statuses in lifecycle order.
var Statuses = []types.ContractStatus{types.StatusDraft, types.StatusDeployed, types.StatusFailed}

// ParseStatus validates a status value. Matching ignores case and surrounding space.
func ParseStatus(s string) (types.ContractStatus, error) {
	candidate := types.ContractStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, status := range Statuses {
		if candidate == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w %q. Valid options: draft, deployed, failed", ErrInvalidStatus, s)
}

// Transition is a requested status change. Empty hash or address leaves the
// stored value untouched.
type Transition struct {
	Status          string
	TransactionHash string
	ContractAddress string
}

// Apply returns rec after t. rec itself is never modified.
func Apply(rec types.ContractRecord, t Transition, now time.Time) (types.ContractRecord, error) {
	status, err := ParseStatus(t.Status)
	if err != nil {
		return rec, err
	}

	hash := strings.TrimSpace(t.TransactionHash)
	address := strings.TrimSpace(t.ContractAddress)
	if status == types.StatusDraft && rec.Status == types.StatusDraft && (hash != "" || address != "") {
		return rec, ErrDraftCarriesDeployment
	}

	next := rec
	next.Metadata = rec.Metadata.Clone()
	next.Status = status
	if hash != "" {
		next.TransactionHash = hash
	}
	if address != "" {
		next.ContractAddress = address
	}
	next.UpdatedAt = now.UTC()
	return next, nil
}

// Machine applies transitions to stored records.
type Machine struct {
	store  store.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewMachine(s store.Store, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{store: s, now: time.Now, logger: logger}
}

// WithClock replaces the time source.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// SetStatus transitions record id. It fails with store.ErrNotFound for an
// unknown id and leaves the record untouched on any error.
func (m *Machine) SetStatus(ctx context.Context, id int64, t Transition) (types.ContractRecord, error) {
	var out types.ContractRecord
	err := m.store.WithTx(ctx, func(tx store.Tx) error {
		rec, err := tx.GetContract(ctx, id)
		if err != nil {
			return err
		}
		next, err := Apply(rec, t, m.now())
		if err != nil {
			return err
		}
		if err := tx.UpdateContract(ctx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return types.ContractRecord{}, err
	}

	metrics.StatusTransitions.WithLabelValues(string(out.Status)).Inc()
	m.logger.Info("contract status updated",
		zap.Int64("contract_id", id),
		zap.String("status", string(out.Status)),
		zap.String("transaction_hash", out.TransactionHash),
	)
	return out, nil
}

// ConfirmDeployment marks id deployed. A transaction hash is mandatory.
func (m *Machine) ConfirmDeployment(ctx context.Context, id int64, txHash, address string) (types.ContractRecord, error) {
	if strings.TrimSpace(txHash) == "" {
		return types.ContractRecord{}, ErrTransactionHashRequired
	}
	return m.SetStatus(ctx, id, Transition{
		Status:          string(types.StatusDeployed),
		TransactionHash: txHash,
		ContractAddress: address,
	})
}

// IsValidationError reports whether err came from rejecting caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrDraftCarriesDeployment) ||
		errors.Is(err, ErrTransactionHashRequired)
}
