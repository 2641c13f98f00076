package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/davidahmann/lexgen/internal/bundle"
	"github.com/davidahmann/lexgen/internal/deploy"
	"github.com/davidahmann/lexgen/internal/generation"
	"github.com/davidahmann/lexgen/internal/lifecycle"
	"github.com/davidahmann/lexgen/internal/metrics"
	"github.com/davidahmann/lexgen/internal/request"
	"github.com/davidahmann/lexgen/internal/rules"
	"github.com/davidahmann/lexgen/internal/store"
	"github.com/davidahmann/lexgen/pkg/types"
	"go.uber.org/zap"
)

// Generator produces an artifact for a validated request.
type Generator interface {
	Generate(ctx context.Context, req types.GenerationRequest, set *rules.RuleSet) (generation.Result, error)
}

// ContractService runs the generation pipeline and owns record access.
type ContractService struct {
	Rules     *rules.RuleSet
	Generator Generator
	Store     store.Store
	Lifecycle *lifecycle.Machine

	now    func() time.Time
	logger *zap.Logger
}

type NewContractServiceInput struct {
	Rules     *rules.RuleSet
	Generator Generator
	Store     store.Store
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewContractService(input NewContractServiceInput) (*ContractService, error) {
	if input.Generator == nil {
		return nil, errors.New("generator is required")
	}
	if input.Store == nil {
		return nil, errors.New("store is required")
	}
	set := input.Rules
	if set == nil {
		set = rules.Empty()
	}
	logger := input.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := input.Now
	if now == nil {
		now = time.Now
	}

	return &ContractService{
		Rules:     set,
		Generator: input.Generator,
		Store:     input.Store,
		Lifecycle: lifecycle.NewMachine(input.Store, logger).WithClock(now),
		now:       now,
		logger:    logger,
	}, nil
}

func (s *ContractService) Validate(req types.GenerationRequest) request.Result {
	result := request.Validate(req, s.Rules)
	label := "valid"
	if !result.Valid {
		label = "invalid"
	}
	metrics.ValidationsTotal.WithLabelValues(label).Inc()
	return result
}

// GenerateResult is a stored draft plus how its artifact was produced.
type GenerateResult struct {
	Contract types.ContractRecord
	Outcome  generation.Outcome
	Warnings []string
	Attempts int
}

// Generate validates req, generates an artifact and stores it as a draft.
// Invalid requests return *request.ValidationError and nothing is stored.
func (s *ContractService) Generate(ctx context.Context, req types.GenerationRequest) (GenerateResult, error) {
	validation := s.Validate(req)
	if err := validation.Err(); err != nil {
		return GenerateResult{}, err
	}

	generated, err := s.Generator.Generate(ctx, req, s.Rules)
	if err != nil {
		return GenerateResult{}, err
	}

	now := s.now().UTC()
	rec := types.ContractRecord{
		Jurisdiction: rules.Normalize(req.Jurisdiction),
		ContractType: rules.Normalize(req.ContractType),
		Requirements: strings.TrimSpace(req.Requirements),
		Description:  strings.TrimSpace(req.Description),
		PayeeAddress: strings.TrimSpace(req.PayeeAddress),
		PayerAddress: strings.TrimSpace(req.PayerAddress),
		SolidityCode: generated.Artifact.SolidityCode,
		DeployScript: generated.Artifact.DeployScript,
		Tests:        generated.Artifact.Tests,
		Metadata:     generated.Artifact.Metadata.Clone(),
		RulesDigest:  s.Rules.Digest(),
		Status:       types.StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var stored types.ContractRecord
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		stored, err = tx.CreateContract(ctx, rec)
		return err
	})
	if err != nil {
		return GenerateResult{}, err
	}

	s.logger.Info("draft contract stored",
		zap.Int64("contract_id", stored.ID),
		zap.String("jurisdiction", stored.Jurisdiction),
		zap.String("contract_type", stored.ContractType),
		zap.String("outcome", string(generated.Outcome)),
		zap.String("contract_name", stored.Metadata.ContractName()),
	)

	return GenerateResult{
		Contract: stored,
		Outcome:  generated.Outcome,
		Warnings: validation.Warnings,
		Attempts: generated.Attempts,
	}, nil
}

func (s *ContractService) GetContract(ctx context.Context, id int64) (types.ContractRecord, error) {
	return s.Store.GetContract(ctx, id)
}

// ListContracts returns summaries newest first. Filter codes are matched the
// same way request codes are stored.
func (s *ContractService) ListContracts(ctx context.Context, filter store.ContractFilter) ([]types.ContractSummary, error) {
	filter.Jurisdiction = rules.Normalize(filter.Jurisdiction)
	filter.ContractType = rules.Normalize(filter.ContractType)
	filter.Status = types.ContractStatus(strings.ToLower(strings.TrimSpace(string(filter.Status))))

	records, err := s.Store.ListContracts(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]types.ContractSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Summary())
	}
	return out, nil
}

func (s *ContractService) UpdateStatus(ctx context.Context, id int64, t lifecycle.Transition) (types.ContractRecord, error) {
	return s.Lifecycle.SetStatus(ctx, id, t)
}

func (s *ContractService) ConfirmDeployment(ctx context.Context, id int64, txHash, address string) (types.ContractRecord, error) {
	return s.Lifecycle.ConfirmDeployment(ctx, id, txHash, address)
}

func (s *ContractService) DeploymentData(ctx context.Context, id int64) (types.DeploymentData, error) {
	rec, err := s.Store.GetContract(ctx, id)
	if err != nil {
		return types.DeploymentData{}, err
	}
	return deploy.Derive(rec), nil
}

// Bundle returns the zip export of a record and its file name.
func (s *ContractService) Bundle(ctx context.Context, id int64) ([]byte, string, error) {
	rec, err := s.Store.GetContract(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := bundle.BuildZip(rec)
	if err != nil {
		return nil, "", err
	}
	return data, bundle.FileName(rec), nil
}
