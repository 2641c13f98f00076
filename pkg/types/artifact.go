package types

// Metadata is the structured description the model returns alongside the code.
// Keys follow the model output contract (contract_name, compiler_version, ...).
type Metadata map[string]any

const DefaultContractName = "GeneratedContract"

// ContractName returns metadata.contract_name, or DefaultContractName when it
// is absent or not a non-empty string.
func (m Metadata) ContractName() string {
	if name, ok := m["contract_name"].(string); ok && name != "" {
		return name
	}
	return DefaultContractName
}

// Clone returns a shallow copy so callers can hand out metadata without
// sharing the backing map.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Artifact struct {
	SolidityCode string   `json:"solidity_code"`
	DeployScript string   `json:"deploy_script"`
	Tests        string   `json:"tests"`
	Metadata     Metadata `json:"metadata"`
}
