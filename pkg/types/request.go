package types

import "strings"

// GenerationRequest is the caller's description of the contract to generate.
type GenerationRequest struct {
	Jurisdiction string `json:"jurisdiction"`
	ContractType string `json:"contractType"`
	Requirements string `json:"requirements"`
	Description  string `json:"description,omitempty"`
	PayeeAddress string `json:"payeeAddress,omitempty"`
	PayerAddress string `json:"payerAddress,omitempty"`
}

// Field returns the named request field. Rule files name fields in either
// camelCase or snake_case, so both spellings resolve.
func (r GenerationRequest) Field(name string) (string, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "")) {
	case "jurisdiction":
		return r.Jurisdiction, true
	case "contracttype":
		return r.ContractType, true
	case "requirements":
		return r.Requirements, true
	case "description":
		return r.Description, true
	case "payeeaddress":
		return r.PayeeAddress, true
	case "payeraddress":
		return r.PayerAddress, true
	default:
		return "", false
	}
}
