package request

import (
	"fmt"
	"strings"

	"github.com/davidahmann/lexgen/internal/rules"
	"github.com/davidahmann/lexgen/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// Result is the outcome of validating one generation request. Valid is true
// iff Errors is empty; warnings never block generation.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Err returns a *ValidationError when the result is invalid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Errors: r.Errors, Warnings: r.Warnings}
}

var requiredFields = []string{"jurisdiction", "contractType", "requirements"}

// Validate checks req against the rule set. Every rule is evaluated so the
// caller sees all problems at once.
func Validate(req types.GenerationRequest, set *rules.RuleSet) Result {
	errs := []string{}
	warnings := []string{}

	for _, field := range requiredFields {
		value, _ := req.Field(field)
		if !present(value) {
			errs = append(errs, fmt.Sprintf("Missing required field: %s", field))
		}
	}

	jurisdiction, known := rules.JurisdictionRule{}, false
	if present(req.Jurisdiction) {
		jurisdiction, known = set.Jurisdiction(req.Jurisdiction)
		if !known {
			errs = append(errs, fmt.Sprintf("Invalid jurisdiction. Valid options: %s", strings.Join(set.JurisdictionCodes(), ", ")))
		}
	}

	if present(req.ContractType) {
		if _, ok := set.ContractType(req.ContractType); !ok {
			errs = append(errs, fmt.Sprintf("Invalid contract type. Valid options: %s", strings.Join(set.ContractTypeCodes(), ", ")))
		}
	}

	for _, addr := range []struct {
		field string
		value string
	}{
		{"payeeAddress", req.PayeeAddress},
		{"payerAddress", req.PayerAddress},
	} {
		if present(addr.value) && !IsAddress(addr.value) {
			warnings = append(warnings, fmt.Sprintf("Invalid Ethereum address format for %s", addr.field))
		}
	}

	if known {
		for _, field := range jurisdiction.RequiredFields {
			value, _ := req.Field(field)
			if !present(value) {
				errs = append(errs, fmt.Sprintf("Field '%s' is required for %s jurisdiction", field, strings.ToUpper(jurisdiction.Code)))
			}
		}
	}

	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// IsAddress reports whether s is "0x" followed by exactly 40 hex digits.
func IsAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && len(s) == 42 && common.IsHexAddress(s)
}

func present(value string) bool {
	return strings.TrimSpace(value) != ""
}
