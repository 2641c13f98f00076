package api

import (
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/davidahmann/lexgen/internal/deploy"
	"github.com/davidahmann/lexgen/internal/lifecycle"
	"github.com/davidahmann/lexgen/internal/rules"
	"github.com/davidahmann/lexgen/internal/store"
	"github.com/davidahmann/lexgen/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	APIName    = "Multi-Jurisdictional Smart Contract Generator API"
	APIVersion = "1.0.0"
)

type Handler struct {
	Service *ContractService
	logger  *zap.Logger
}

type statusRequest struct {
	Status          string `json:"status" validate:"required"`
	TransactionHash string `json:"transactionHash"`
	ContractAddress string `json:"contractAddress"`
}

type confirmRequest struct {
	TransactionHash string `json:"transactionHash" validate:"required"`
	ContractAddress string `json:"contractAddress"`
	GasUsed         int64  `json:"gasUsed" validate:"gte=0"`
}

type estimateGasRequest struct {
	ContractType string `json:"contractType"`
	Jurisdiction string `json:"jurisdiction"`
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"version":   APIVersion,
	})
}

func (h *Handler) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        APIName,
		"version":     APIVersion,
		"description": "Backend API for generating jurisdiction-specific smart contracts",
		"endpoints": map[string]map[string]string{
			"contracts": {
				"POST /api/generate":             "Generate new smart contract",
				"GET /api/contracts":             "List all contracts",
				"GET /api/contracts/{id}":        "Get specific contract",
				"PUT /api/contracts/{id}/status": "Update contract status",
				"GET /api/contracts/{id}/bundle": "Download contract bundle",
				"POST /api/validate":             "Validate contract request",
			},
			"deployment": {
				"POST /api/deploy/{id}":         "Prepare contract deployment",
				"POST /api/deploy/{id}/confirm": "Confirm deployment",
				"GET /api/deploy/{id}/bytecode": "Get contract bytecode",
				"POST /api/deploy/estimate-gas": "Estimate deployment gas",
			},
		},
		"supported_jurisdictions":  h.Service.Rules.JurisdictionCodes(),
		"supported_contract_types": h.Service.Rules.ContractTypeCodes(),
		"rules_digest":             h.Service.Rules.Digest(),
	})
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerationRequest
	if err := readJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.Service.Generate(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"contract": result.Contract,
		"outcome":  result.Outcome,
		"warnings": result.Warnings,
		"message":  "Contract generated successfully",
	})
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerationRequest
	if err := readJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"validation": h.Service.Validate(req),
	})
}

func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.ContractFilter{
		Jurisdiction: query.Get("jurisdiction"),
		ContractType: query.Get("contractType"),
		Status:       types.ContractStatus(query.Get("status")),
	}

	contracts, err := h.Service.ListContracts(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"contracts": contracts,
		"count":     len(contracts),
	})
}

func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}

	rec, err := h.Service.GetContract(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"contract": rec,
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := readJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.Service.UpdateStatus(r.Context(), id, lifecycle.Transition{
		Status:          req.Status,
		TransactionHash: req.TransactionHash,
		ContractAddress: req.ContractAddress,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Contract status updated successfully",
		"contract": rec,
	})
}

func (h *Handler) Bundle(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}

	data, name, err := h.Service.Bundle(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) PrepareDeployment(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}

	data, err := h.Service.DeploymentData(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"deploymentData": data,
		"instructions": map[string]string{
			"step1": "Compile the Solidity code using your preferred method",
			"step2": "Deploy using MetaMask with the provided constructor parameters",
			"step3": "Call /api/deploy/{contract_id}/confirm with transaction hash after deployment",
		},
	})
}

func (h *Handler) ConfirmDeployment(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := readJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.Service.ConfirmDeployment(r.Context(), id, req.TransactionHash, req.ContractAddress)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.GasUsed > 0 {
		h.logger.Info("deployment gas reported", zap.Int64("contract_id", id), zap.Int64("gas_used", req.GasUsed))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Deployment confirmed successfully",
		"contractId":      rec.ID,
		"transactionHash": rec.TransactionHash,
		"contractAddress": rec.ContractAddress,
	})
}

func (h *Handler) Bytecode(w http.ResponseWriter, r *http.Request) {
	id, ok := contractID(w, r)
	if !ok {
		return
	}

	data, err := h.Service.DeploymentData(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"contractId":        id,
		"bytecode":          deploy.PlaceholderBytecode,
		"abi":               []any{},
		"constructorParams": data.ConstructorParams,
		"note":              "This is placeholder bytecode. In production, compile the Solidity code first.",
	})
}

func (h *Handler) EstimateGas(w http.ResponseWriter, r *http.Request) {
	var req estimateGasRequest
	if err := readJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	contractType := rules.Normalize(req.ContractType)
	jurisdiction := rules.Normalize(req.Jurisdiction)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"estimatedGas": deploy.EstimateGas(contractType, jurisdiction),
		"contractType": contractType,
		"jurisdiction": jurisdiction,
		"note":         "Gas estimates are approximate and may vary based on network conditions",
	})
}

func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusNotFound, "Endpoint not found")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// contractID reads the {id} route parameter. Ids that do not fit an int64
// cannot exist, so they answer 404.
func contractID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusNotFound, "Contract not found")
		return 0, false
	}
	return id, true
}
