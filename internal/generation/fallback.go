package generation

import "github.com/davidahmann/lexgen/pkg/types"

const fallbackCode = `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.19;

/**
 * @title BasicContract
 * @dev A basic smart contract template
 */
contract BasicContract {
    address public owner;

    constructor() {
        owner = msg.sender;
    }

    modifier onlyOwner() {
        require(msg.sender == owner, "Not authorized");
        _;
    }

    function updateOwner(address newOwner) external onlyOwner {
        require(newOwner != address(0), "Invalid address");
        owner = newOwner;
    }
}`

const fallbackDeployScript = `const { ethers } = require("hardhat");

async function main() {
    const Contract = await ethers.getContractFactory("BasicContract");
    const contract = await Contract.deploy();
    await contract.deployed();
    console.log("Contract deployed to:", contract.address);
}

main().catch((error) => {
    console.error(error);
    process.exitCode = 1;
});`

const fallbackTests = `const { expect } = require("chai");

describe("BasicContract", function () {
    it("Should deploy successfully", async function () {
        const Contract = await ethers.getContractFactory("BasicContract");
        const contract = await Contract.deploy();
        expect(contract.address).to.not.equal(0);
    });
});`

// FallbackArtifact returns the fixed artifact used when model output cannot be
// decoded. Each call returns a fresh value.
func FallbackArtifact() types.Artifact {
	return types.Artifact{
		SolidityCode: fallbackCode,
		DeployScript: fallbackDeployScript,
		Tests:        fallbackTests,
		Metadata: types.Metadata{
			"contract_name":     "BasicContract",
			"compiler_version":  "^0.8.19",
			"optimization":      true,
			"license":           "MIT",
			"description":       "Basic contract template",
			"functions":         []any{"updateOwner"},
			"events":            []any{},
			"security_features": []any{"onlyOwner modifier"},
		},
	}
}
