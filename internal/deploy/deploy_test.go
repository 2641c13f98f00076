package deploy

import (
	"testing"

	"github.com/davidahmann/lexgen/pkg/types"
)

const (
	payee = "0x1111111111111111111111111111111111111111"
	payer = "0x2222222222222222222222222222222222222222"
)

func TestDeriveConstructorOrder(t *testing.T) {
	cases := []struct {
		name  string
		payee string
		payer string
		want  []string
	}{
		{name: "both", payee: payee, payer: payer, want: []string{payee, payer}},
		{name: "payee only", payee: payee, want: []string{payee}},
		{name: "payer only", payer: payer, want: []string{payer}},
		{name: "none", want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := Derive(types.ContractRecord{ID: 7, PayeeAddress: tc.payee, PayerAddress: tc.payer})
			if len(data.ConstructorParams) != len(tc.want) {
				t.Fatalf("params: got %v want %v", data.ConstructorParams, tc.want)
			}
			for i := range tc.want {
				if data.ConstructorParams[i] != tc.want[i] {
					t.Fatalf("param %d: got %s want %s", i, data.ConstructorParams[i], tc.want[i])
				}
			}
			if data.ConstructorParams == nil {
				t.Fatalf("params must encode as an array")
			}
		})
	}
}

func TestDeriveDefaults(t *testing.T) {
	data := Derive(types.ContractRecord{ID: 3, SolidityCode: "contract X {}"})
	if data.ContractID != 3 {
		t.Fatalf("contract id: %d", data.ContractID)
	}
	if data.ContractName != types.DefaultContractName {
		t.Fatalf("contract name: %s", data.ContractName)
	}
	if data.EstimatedGas != DefaultGas {
		t.Fatalf("gas: %d", data.EstimatedGas)
	}
	if data.Metadata == nil {
		t.Fatalf("metadata must be an empty object")
	}
	if data.SolidityCode != "contract X {}" {
		t.Fatalf("solidity code not carried")
	}
}

func TestDeriveUsesMetadataName(t *testing.T) {
	rec := types.ContractRecord{Metadata: types.Metadata{"contract_name": "IndiaEscrow"}}
	data := Derive(rec)
	if data.ContractName != "IndiaEscrow" {
		t.Fatalf("contract name: %s", data.ContractName)
	}
	data.Metadata["contract_name"] = "changed"
	if rec.Metadata["contract_name"] != "IndiaEscrow" {
		t.Fatalf("record metadata shared with deployment data")
	}
}

func TestEstimateGas(t *testing.T) {
	cases := []struct {
		contractType string
		jurisdiction string
		want         int64
	}{
		{"insurance", "eu", 2200000},
		{"Insurance", "EU", 2200000},
		{"escrow", "india", 1600000},
		{"settlement", "us", 1950000},
		{"escrow", "", 1500000},
		{"settlement", "mars", 1800000},
		{"lease", "eu", 1500000},
		{"", "", 1500000},
	}
	for _, tc := range cases {
		if got := EstimateGas(tc.contractType, tc.jurisdiction); got != tc.want {
			t.Fatalf("EstimateGas(%q, %q) = %d, want %d", tc.contractType, tc.jurisdiction, got, tc.want)
		}
	}
}

func TestEstimateRowWithoutBase(t *testing.T) {
	table := GasTable{"custom": {"eu": 42}}
	if got := table.Estimate("custom", "us"); got != DefaultTypeGas {
		t.Fatalf("got %d", got)
	}
	if got := table.Estimate("custom", "eu"); got != 42 {
		t.Fatalf("got %d", got)
	}
}
