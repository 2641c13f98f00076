// Package prompt renders the generation prompt for a request. Output depends
// only on the request and the rule set, so it is safe to golden-test.
package prompt

import (
	"fmt"
	"strings"

	"github.com/davidahmann/lexgen/internal/rules"
	"github.com/davidahmann/lexgen/pkg/types"
)

const (
	DefaultLegalFramework = "Standard contract law"
	notAvailable          = "N/A"
	fence                 = "```"
)

const preamble = "You are an expert smart contract developer specializing in multi-jurisdictional compliance. " +
	"Generate a complete Solidity smart contract based on the following requirements:"

const outputShape = fence + `json
{
  "solidity_code": "Complete Solidity contract code with proper licensing, imports, and comprehensive functionality",
  "deploy_script": "JavaScript deployment script for Hardhat or similar framework",
  "tests": "Comprehensive test suite in JavaScript/TypeScript for the contract",
  "metadata": {
    "contract_name": "Name of the generated contract",
    "compiler_version": "Recommended Solidity compiler version",
    "optimization": true,
    "license": "SPDX license identifier",
    "description": "Brief description of contract functionality",
    "functions": ["list", "of", "main", "functions"],
    "events": ["list", "of", "events"],
    "security_features": ["list", "of", "security", "features"]
  }
}
` + fence

const instructions = `Requirements for the Solidity contract:
1. Use Solidity ^0.8.19 or later
2. Include proper SPDX license identifier
3. Implement all required functions for the contract type
4. Add comprehensive error handling and input validation
5. Include relevant events for transparency
6. Follow best practices for security (reentrancy protection, access control, etc.)
7. Add detailed comments explaining functionality
8. Include jurisdiction-specific compliance features
9. Implement proper state management
10. Add emergency functions if appropriate

The contract should be production-ready and thoroughly tested.
`

// Build renders the prompt for req. Rule entries that are missing render as
// empty sections; Build never fails.
func Build(req types.GenerationRequest, set *rules.RuleSet) string {
	jurisdiction, _ := set.Jurisdiction(req.Jurisdiction)
	contractType, _ := set.ContractType(req.ContractType)

	framework := strings.TrimSpace(jurisdiction.LegalFramework)
	if framework == "" {
		framework = DefaultLegalFramework
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n## Contract Requirements:\n")
	writeItem(&b, "Jurisdiction", req.Jurisdiction)
	writeItem(&b, "Contract Type", req.ContractType)
	writeItem(&b, "Requirements", req.Requirements)
	writeItem(&b, "Description", req.Description)
	writeItem(&b, "Payee Address", req.PayeeAddress)
	writeItem(&b, "Payer Address", req.PayerAddress)
	b.WriteString("\n")

	writeSection(&b, "Legal Framework", framework)
	writeSection(&b, "Compliance Rules", strings.Join(jurisdiction.ComplianceRules, "\n"))
	writeSection(&b, "Contract-Specific Clauses", strings.Join(jurisdiction.Clauses(req.ContractType), "\n"))
	writeSection(&b, "Required Functions", strings.Join(contractType.RequiredFunctions, "\n"))
	writeSection(&b, "Security Considerations", strings.Join(contractType.SecurityConsiderations, "\n"))

	b.WriteString("Please generate a response in the following JSON format:\n\n")
	b.WriteString(outputShape)
	b.WriteString("\n\n")
	b.WriteString(instructions)
	return b.String()
}

func writeItem(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = notAvailable
	}
	fmt.Fprintf(b, "- **%s**: %s\n", label, value)
}

func writeSection(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "## %s:\n%s\n\n", title, body)
}
