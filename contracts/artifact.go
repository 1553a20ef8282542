// Package contracts loads compiled contract artifacts: the ABI and creation bytecode a contract
// is deployed from, and the compiler input its source is verified with.
//
// Both the Hardhat layout (artifacts/contracts/<Source>.sol/<Name>.json) and the Foundry layout
// (out/<Source>.sol/<Name>.json) are understood.
package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrArtifactNotFound = errors.New("contract artifact not found")

// Artifact is a compiled contract.
type Artifact struct {
	ContractName string
	SourceName   string
	ABI          abi.ABI
	// RawABI is the ABI in its JSON form.
	RawABI           json.RawMessage
	Bytecode         []byte
	DeployedBytecode []byte
}

// BytecodeHash returns the keccak256 hash of the creation bytecode.
func (a *Artifact) BytecodeHash() string {
	return crypto.Keccak256Hash(a.Bytecode).Hex()
}

// FullyQualifiedName returns "<source>:<contract>", the form verification services expect.
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.ContractName
	}

	return a.SourceName + ":" + a.ContractName
}

// rawArtifact covers the fields of both Hardhat and Foundry artifacts. Hardhat stores bytecode
// as a hex string, Foundry as an object with the hex string under "object".
type rawArtifact struct {
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         json.RawMessage `json:"bytecode"`
	DeployedBytecode json.RawMessage `json:"deployedBytecode"`
}

// Parse decodes a Hardhat or Foundry artifact. name is used when the artifact does not record
// its contract name.
func Parse(name string, data []byte) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", name, err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", name)
	}

	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi of %s: %w", name, err)
	}

	bytecode, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode in %s: %w", name, err)
	}
	deployed, err := decodeBytecode(raw.DeployedBytecode)
	if err != nil {
		return nil, fmt.Errorf("invalid deployed bytecode in %s: %w", name, err)
	}

	contractName := raw.ContractName
	if contractName == "" {
		contractName = name
	}

	return &Artifact{
		ContractName:     contractName,
		SourceName:       raw.SourceName,
		ABI:              parsed,
		RawABI:           raw.ABI,
		Bytecode:         bytecode,
		DeployedBytecode: deployed,
	}, nil
}

func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		var obj struct {
			Object string `json:"object"`
		}
		if err = json.Unmarshal(raw, &obj); err != nil {
			return nil, errors.New("bytecode is neither a hex string nor an object")
		}
		hex = obj.Object
	}

	if hex == "" || hex == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(hex, "0x") {
		hex = "0x" + hex
	}
	if strings.Contains(hex, "__") {
		return nil, errors.New("bytecode has unlinked library references")
	}

	return hexutil.Decode(hex)
}
