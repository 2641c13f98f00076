// Package deploy prepares unsigned deployment material for stored contracts.
// Nothing here compiles Solidity or talks to a chain.
package deploy

import (
	"strings"

	"github.com/davidahmann/lexgen/pkg/types"
)

// DefaultGas is the flat estimate attached to prepared deployment data.
const DefaultGas int64 = 2000000

// PlaceholderBytecode stands in for compiler output.
const PlaceholderBytecode = "0x608060405234801561001057600080fd5b50600080fdfea2646970667358221220"

// Derive builds deployment data for rec. Constructor parameters are the payee
// address then the payer address; unset addresses are omitted.
func Derive(rec types.ContractRecord) types.DeploymentData {
	params := []string{}
	if addr := strings.TrimSpace(rec.PayeeAddress); addr != "" {
		params = append(params, addr)
	}
	if addr := strings.TrimSpace(rec.PayerAddress); addr != "" {
		params = append(params, addr)
	}

	metadata := rec.Metadata.Clone()
	return types.DeploymentData{
		ContractID:        rec.ID,
		ContractName:      metadata.ContractName(),
		SolidityCode:      rec.SolidityCode,
		DeployScript:      rec.DeployScript,
		ConstructorParams: params,
		EstimatedGas:      DefaultGas,
		Metadata:          metadata,
	}
}
