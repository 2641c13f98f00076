package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davidahmann/lexgen/internal/store"
	"github.com/davidahmann/lexgen/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	created = time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	later   = created.Add(time.Hour)
)

func draftRecord() types.ContractRecord {
	return types.ContractRecord{
		ID:           1,
		Jurisdiction: "india",
		ContractType: "escrow",
		Requirements: "test",
		Metadata:     types.Metadata{"contract_name": "Escrow"},
		Status:       types.StatusDraft,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestParseStatus(t *testing.T) {
	for _, in := range []string{"draft", "Deployed", " failed "} {
		_, err := ParseStatus(in)
		assert.NoError(t, err, in)
	}

	_, err := ParseStatus("pending")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Contains(t, err.Error(), "Valid options: draft, deployed, failed")
}

func TestApplyDeployed(t *testing.T) {
	rec := draftRecord()

	next, err := Apply(rec, Transition{Status: "deployed", TransactionHash: "0xhash", ContractAddress: "0xaddr"}, later)
	require.NoError(t, err)

	assert.Equal(t, types.StatusDeployed, next.Status)
	assert.Equal(t, "0xhash", next.TransactionHash)
	assert.Equal(t, "0xaddr", next.ContractAddress)
	assert.Equal(t, later, next.UpdatedAt)
	assert.Equal(t, types.StatusDraft, rec.Status, "input record must not change")
}

func TestApplyDeployedWithoutHashIsAllowed(t *testing.T) {
	next, err := Apply(draftRecord(), Transition{Status: "deployed"}, later)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDeployed, next.Status)
	assert.Empty(t, next.TransactionHash)
}

func TestApplyKeepsExistingValuesWhenNotSupplied(t *testing.T) {
	rec := draftRecord()
	rec.Status = types.StatusDeployed
	rec.TransactionHash = "0xold"
	rec.ContractAddress = "0xaddr"

	next, err := Apply(rec, Transition{Status: "failed", TransactionHash: "0xnew"}, later)
	require.NoError(t, err)
	assert.Equal(t, "0xnew", next.TransactionHash)
	assert.Equal(t, "0xaddr", next.ContractAddress)
}

func TestApplyAllowsAnyDirection(t *testing.T) {
	rec := draftRecord()
	rec.Status = types.StatusDeployed
	rec.TransactionHash = "0xhash"

	back, err := Apply(rec, Transition{Status: "draft"}, later)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDraft, back.Status)

	failed, err := Apply(rec, Transition{Status: "failed"}, later)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, failed.Status)
}

func TestApplyRejectsDeploymentDataOnDraft(t *testing.T) {
	rec := draftRecord()
	next, err := Apply(rec, Transition{Status: "draft", TransactionHash: "0xhash"}, later)
	assert.ErrorIs(t, err, ErrDraftCarriesDeployment)
	assert.Equal(t, rec, next)
}

func TestApplyRejectsUnknownStatus(t *testing.T) {
	rec := draftRecord()
	next, err := Apply(rec, Transition{Status: "pending"}, later)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, rec, next)
}

func newMachine(t *testing.T) (*Machine, *store.InMemoryStore, types.ContractRecord) {
	t.Helper()
	s := store.NewInMemoryStore()
	rec, err := s.CreateContract(context.Background(), draftRecord())
	require.NoError(t, err)
	return NewMachine(s, nil).WithClock(func() time.Time { return later }), s, rec
}

func TestSetStatusPersists(t *testing.T) {
	m, s, rec := newMachine(t)

	updated, err := m.SetStatus(context.Background(), rec.ID, Transition{Status: "failed"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, updated.Status)

	stored, err := s.GetContract(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, stored.Status)
	assert.Equal(t, later, stored.UpdatedAt)
}

func TestSetStatusUnknownValueDoesNotMutate(t *testing.T) {
	m, s, rec := newMachine(t)

	_, err := m.SetStatus(context.Background(), rec.ID, Transition{Status: "pending"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	stored, err := s.GetContract(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
}

func TestSetStatusNotFound(t *testing.T) {
	m, _, _ := newMachine(t)

	_, err := m.SetStatus(context.Background(), 404, Transition{Status: "deployed"})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestConfirmDeployment(t *testing.T) {
	m, s, rec := newMachine(t)

	_, err := m.ConfirmDeployment(context.Background(), rec.ID, " ", "")
	assert.ErrorIs(t, err, ErrTransactionHashRequired)

	confirmed, err := m.ConfirmDeployment(context.Background(), rec.ID, "0xhash", "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusDeployed, confirmed.Status)

	stored, _ := s.GetContract(context.Background(), rec.ID)
	assert.Equal(t, "0xhash", stored.TransactionHash)
	assert.Empty(t, stored.ContractAddress)
}
