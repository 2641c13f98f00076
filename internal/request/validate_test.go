package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/davidahmann/lexgen/internal/rules"
	"github.com/davidahmann/lexgen/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRules = `
jurisdictions:
  india:
    legal_framework: Indian Contract Act
    required_fields: []
  eu:
    legal_framework: GDPR
    required_fields: [description, payee_address]
contract_types:
  escrow:
    required_functions: [deposit]
  insurance:
    required_functions: [payPremium]
`

func loadRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	set, err := rules.Parse([]byte(testRules))
	require.NoError(t, err)
	return set
}

func TestValidateIndiaEscrowIsValid(t *testing.T) {
	result := Validate(types.GenerationRequest{
		Jurisdiction: "india",
		ContractType: "escrow",
		Requirements: "test",
	}, loadRules(t))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.NoError(t, result.Err())
}

func TestValidateMissingFieldsOneErrorEach(t *testing.T) {
	result := Validate(types.GenerationRequest{}, loadRules(t))

	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"Missing required field: jurisdiction",
		"Missing required field: contractType",
		"Missing required field: requirements",
	}, result.Errors)

	var vErr *ValidationError
	require.True(t, errors.As(result.Err(), &vErr))
	assert.Len(t, vErr.Errors, 3)
}

func TestValidateWhitespaceCountsAsMissing(t *testing.T) {
	result := Validate(types.GenerationRequest{
		Jurisdiction: "india",
		ContractType: "escrow",
		Requirements: "   ",
	}, loadRules(t))

	assert.False(t, result.Valid)
	assert.Equal(t, []string{"Missing required field: requirements"}, result.Errors)
}

func TestValidateUnknownCodesListOptions(t *testing.T) {
	result := Validate(types.GenerationRequest{
		Jurisdiction: "mars",
		ContractType: "lease",
		Requirements: "test",
	}, loadRules(t))

	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"Invalid jurisdiction. Valid options: eu, india",
		"Invalid contract type. Valid options: escrow, insurance",
	}, result.Errors)
}

func TestValidateCodesAreCaseInsensitive(t *testing.T) {
	result := Validate(types.GenerationRequest{
		Jurisdiction: "INDIA",
		ContractType: "Escrow",
		Requirements: "test",
	}, loadRules(t))

	assert.True(t, result.Valid, result.Errors)
}

func TestValidateJurisdictionRequiredFields(t *testing.T) {
	result := Validate(types.GenerationRequest{
		Jurisdiction: "eu",
		ContractType: "escrow",
		Requirements: "test",
	}, loadRules(t))

	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"Field 'description' is required for EU jurisdiction",
		"Field 'payee_address' is required for EU jurisdiction",
	}, result.Errors)
}

func TestValidateAddressWarningsDoNotBlock(t *testing.T) {
	result := Validate(types.GenerationRequest{
		Jurisdiction: "india",
		ContractType: "escrow",
		Requirements: "test",
		PayeeAddress: "0x123",
		PayerAddress: "0x" + strings.Repeat("a", 40),
	}, loadRules(t))

	assert.True(t, result.Valid)
	assert.Equal(t, []string{"Invalid Ethereum address format for payeeAddress"}, result.Warnings)
}

func TestValidateAgainstEmptyRuleSet(t *testing.T) {
	result := Validate(types.GenerationRequest{
		Jurisdiction: "india",
		ContractType: "escrow",
		Requirements: "test",
	}, rules.Empty())

	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		"Invalid jurisdiction. Valid options: ",
		"Invalid contract type. Valid options: ",
	}, result.Errors)
}

func TestIsAddress(t *testing.T) {
	valid := []string{
		"0x" + strings.Repeat("0", 40),
		"0xAbCdEf0123456789abcdef0123456789ABCDEF01",
	}
	for _, addr := range valid {
		assert.True(t, IsAddress(addr), addr)
	}

	invalid := []string{
		"",
		strings.Repeat("a", 42),
		"0X" + strings.Repeat("a", 40),
		"0x" + strings.Repeat("a", 39),
		"0x" + strings.Repeat("a", 41),
		"0x" + strings.Repeat("a", 39) + "g",
		"0x" + strings.Repeat("a", 39) + " ",
	}
	for _, addr := range invalid {
		assert.False(t, IsAddress(addr), addr)
	}
}
