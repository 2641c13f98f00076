package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/davidahmann/lexgen/internal/lifecycle"
	"github.com/davidahmann/lexgen/internal/request"
	"github.com/davidahmann/lexgen/internal/store"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// badRequest is an input problem whose text is returned to the caller as is.
type badRequest string

func (b badRequest) Error() string { return string(b) }

const (
	errNotJSON   badRequest = "Request must be JSON"
	errEmptyBody badRequest = "Empty request body"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// readJSON decodes a JSON object body into dst and runs its validate tags.
// Errors are safe to show to the caller.
func readJSON(r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return errNotJSON
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return errNotJSON
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.Field() {
	case "Status":
		return badRequest("Status is required")
	case "TransactionHash":
		return badRequest("Transaction hash is required")
	}
	return badRequest(fmt.Sprintf("Field '%s' failed '%s' validation", fe.Field(), fe.Tag()))
}

func lifecycleMessage(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidStatus):
		return "Invalid status. Valid options: draft, deployed, failed"
	case errors.Is(err, lifecycle.ErrTransactionHashRequired):
		return "Transaction hash is required"
	case errors.Is(err, lifecycle.ErrDraftCarriesDeployment):
		return "A draft contract cannot carry a transaction hash or contract address"
	}
	return err.Error()
}

// writeError maps service errors onto responses. Anything not recognised is
// logged and answered with a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *request.ValidationError
	var bad badRequest
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "Validation failed",
			"errors":   verr.Errors,
			"warnings": verr.Warnings,
		})
	case errors.As(err, &bad):
		writeMessage(w, http.StatusBadRequest, bad.Error())
	case lifecycle.IsValidationError(err):
		writeMessage(w, http.StatusBadRequest, lifecycleMessage(err))
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Contract not found")
	default:
		requestID := RequestIDFromContext(r.Context())
		h.logger.Error("request failed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":      "Internal server error",
			"request_id": requestID,
		})
	}
}
