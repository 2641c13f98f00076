package types

import "time"

type ContractStatus string

const (
	StatusDraft    ContractStatus = "draft"
	StatusDeployed ContractStatus = "deployed"
	StatusFailed   ContractStatus = "failed"
)

// ContractRecord is one generation request plus its artifact and lifecycle state.
type ContractRecord struct {
	ID              int64          `json:"id"`
	Jurisdiction    string         `json:"jurisdiction"`
	ContractType    string         `json:"contractType"`
	Requirements    string         `json:"requirements"`
	Description     string         `json:"description,omitempty"`
	PayeeAddress    string         `json:"payeeAddress,omitempty"`
	PayerAddress    string         `json:"payerAddress,omitempty"`
	SolidityCode    string         `json:"solidityCode"`
	DeployScript    string         `json:"deployScript"`
	Tests           string         `json:"tests"`
	Metadata        Metadata       `json:"metadata"`
	RulesDigest     string         `json:"rulesDigest,omitempty"`
	Status          ContractStatus `json:"status"`
	TransactionHash string         `json:"transactionHash,omitempty"`
	ContractAddress string         `json:"contractAddress,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ContractSummary is the list view of a record.
type ContractSummary struct {
	ID              int64          `json:"id"`
	Jurisdiction    string         `json:"jurisdiction"`
	ContractType    string         `json:"contractType"`
	Description     string         `json:"description,omitempty"`
	Status          ContractStatus `json:"status"`
	ContractAddress string         `json:"contractAddress,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (r ContractRecord) Summary() ContractSummary {
	return ContractSummary{
		ID:              r.ID,
		Jurisdiction:    r.Jurisdiction,
		ContractType:    r.ContractType,
		Description:     r.Description,
		Status:          r.Status,
		ContractAddress: r.ContractAddress,
		CreatedAt:       r.CreatedAt,
	}
}

// DeploymentData is the unsigned material a wallet needs to deploy a record.
type DeploymentData struct {
	ContractID        int64    `json:"contractId"`
	ContractName      string   `json:"contractName"`
	SolidityCode      string   `json:"solidityCode"`
	DeployScript      string   `json:"deployScript"`
	ConstructorParams []string `json:"constructorParams"`
	EstimatedGas      int64    `json:"estimatedGas"`
	Metadata          Metadata `json:"metadata"`
}
