package datastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrArtifactNotFound = errors.New("no deployed artifact can be found for the provided name")
	ErrArtifactExists   = errors.New("a deployed artifact with the supplied name already exists")
	ErrInvalidAddress   = errors.New("invalid address")
)

// Receipt is the part of the deployment transaction receipt kept with an artifact.
type Receipt struct {
	BlockNumber uint64 `json:"blockNumber"`
	BlockHash   string `json:"blockHash"`
	GasUsed     uint64 `json:"gasUsed"`
	Status      uint64 `json:"status"`
}

// NewReceipt extracts the stored fields of a transaction receipt.
func NewReceipt(r *types.Receipt) Receipt {
	if r == nil {
		return Receipt{}
	}

	out := Receipt{
		BlockHash: r.BlockHash.Hex(),
		GasUsed:   r.GasUsed,
		Status:    r.Status,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}

	return out
}

// DeployedArtifact is the record of a deployed contract.
type DeployedArtifact struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	// ABI is the contract ABI in its JSON form.
	ABI             json.RawMessage `json:"abi"`
	TransactionHash string          `json:"transactionHash"`
	Receipt         Receipt         `json:"receipt"`
	Confirmations   uint64          `json:"confirmations"`
	// Args are the constructor arguments in string form.
	Args    []string `json:"args"`
	ChainID uint64   `json:"chainId"`
	// BytecodeHash is the keccak256 hash of the creation bytecode without constructor arguments.
	BytecodeHash string    `json:"bytecodeHash,omitempty"`
	DeployedAt   time.Time `json:"deployedAt"`
}

// Key returns the name the artifact is stored under.
func (a DeployedArtifact) Key() string {
	return a.Name
}

// Clone returns a deep copy of the artifact.
func (a DeployedArtifact) Clone() (DeployedArtifact, error) {
	return clone(a)
}

// ContractAddress returns the parsed address of the artifact.
func (a DeployedArtifact) ContractAddress() common.Address {
	return common.HexToAddress(a.Address)
}

// normalize validates the artifact and standardizes its address to EIP-55.
func (a DeployedArtifact) normalize() (DeployedArtifact, error) {
	if a.Name == "" {
		return DeployedArtifact{}, errors.New("artifact name is required")
	}
	if !common.IsHexAddress(a.Address) {
		return DeployedArtifact{}, fmt.Errorf("artifact %s: %w: %q", a.Name, ErrInvalidAddress, a.Address)
	}

	out, err := a.Clone()
	if err != nil {
		return DeployedArtifact{}, err
	}
	out.Address = common.HexToAddress(a.Address).Hex()

	return out, nil
}

// ArtifactStore is a read-only view over the deployed artifacts of one network.
type ArtifactStore interface {
	// Get returns a copy of the artifact stored under name, or ErrArtifactNotFound.
	Get(name string) (DeployedArtifact, error)
	// Fetch returns a copy of every artifact, sorted by name.
	Fetch() ([]DeployedArtifact, error)
}

// MutableArtifactStore is an ArtifactStore that can be written to.
type MutableArtifactStore interface {
	ArtifactStore

	// Add stores a new artifact. It fails with ErrArtifactExists if the name is taken.
	Add(artifact DeployedArtifact) error
	// Upsert stores the artifact, replacing any artifact with the same name.
	Upsert(artifact DeployedArtifact) error
	// Delete removes the artifact stored under name, or fails with ErrArtifactNotFound.
	Delete(name string) error
	// Reset removes every artifact.
	Reset() error
}
