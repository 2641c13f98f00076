package deploy

import "strings"

const baseKey = "base"

// DefaultTypeGas is returned for contract types missing from the table.
const DefaultTypeGas int64 = 1500000

type GasTable map[string]map[string]int64

// DefaultGasTable holds per contract type a base estimate plus jurisdiction
// overrides.
func DefaultGasTable() GasTable {
	return GasTable{
		"escrow": {
			baseKey: 1500000,
			"india": 1600000,
			"eu":    1700000,
			"us":    1650000,
		},
		"insurance": {
			baseKey: 2000000,
			"india": 2100000,
			"eu":    2200000,
			"us":    2150000,
		},
		"settlement": {
			baseKey: 1800000,
			"india": 1900000,
			"eu":    2000000,
			"us":    1950000,
		},
	}
}

// Estimate resolves the jurisdiction override, then the type base, then
// DefaultTypeGas. Keys are matched lowercase.
func (t GasTable) Estimate(contractType, jurisdiction string) int64 {
	row, ok := t[strings.ToLower(strings.TrimSpace(contractType))]
	if !ok {
		return DefaultTypeGas
	}
	base, ok := row[baseKey]
	if !ok {
		base = DefaultTypeGas
	}
	if gas, ok := row[strings.ToLower(strings.TrimSpace(jurisdiction))]; ok {
		return gas
	}
	return base
}

// EstimateGas looks up the shipped table.
func EstimateGas(contractType, jurisdiction string) int64 {
	return DefaultGasTable().Estimate(contractType, jurisdiction)
}
