package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/raffle-labs/raffle-deployments/config/chain"
	"github.com/raffle-labs/raffle-deployments/config/network"
	"github.com/raffle-labs/raffle-deployments/contracts"
	"github.com/raffle-labs/raffle-deployments/datastore"
	"github.com/raffle-labs/raffle-deployments/operations"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
	"github.com/raffle-labs/raffle-deployments/verify"
)

const (
	mockABIJSON = `[
  {"inputs":[{"name":"_baseFee","type":"uint96"},{"name":"_gasPriceLink","type":"uint96"}],"stateMutability":"nonpayable","type":"constructor"},
  {"inputs":[],"name":"createSubscription","outputs":[{"name":"","type":"uint64"}],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"_subId","type":"uint64"},{"name":"_amount","type":"uint96"}],"name":"fundSubscription","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"anonymous":false,"inputs":[{"indexed":true,"name":"subId","type":"uint64"},{"indexed":false,"name":"owner","type":"address"}],"name":"SubscriptionCreated","type":"event"}
]`

	raffleABIJSON = `[
  {"inputs":[
    {"name":"vrfCoordinatorV2","type":"address"},
    {"name":"entranceFee","type":"uint256"},
    {"name":"gasLane","type":"bytes32"},
    {"name":"subscriptionId","type":"uint64"},
    {"name":"callbackGasLimit","type":"uint32"},
    {"name":"interval","type":"uint256"}
  ],"stateMutability":"nonpayable","type":"constructor"}
]`

	// misorderedRaffleABIJSON takes the arguments in the historical wrong order.
	misorderedRaffleABIJSON = `[
  {"inputs":[
    {"name":"vrfCoordinatorV2","type":"address"},
    {"name":"subscriptionId","type":"uint64"},
    {"name":"gasLane","type":"bytes32"},
    {"name":"interval","type":"uint256"},
    {"name":"entranceFee","type":"uint256"},
    {"name":"callbackGasLimit","type":"uint32"}
  ],"stateMutability":"nonpayable","type":"constructor"}
]`

	testGasLane = "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"
	testFee     = "0x2386f26fc10000"

	mockAddress   = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	raffleAddress = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
	liveCoord     = "0x8103B0A8A00be2DDC778e6e7eaa21791Cd364625"
)

func mustABI(t *testing.T, raw string) abi.ABI {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(raw))
	require.NoError(t, err)

	return parsed
}

// completeRow returns a chain row with every field set.
func completeRow(name string) chain.Row {
	return chain.Row{
		Name:                  name,
		SubscriptionID:        "8368",
		GasLane:               testGasLane,
		KeepersUpdateInterval: "30",
		RaffleEntranceFee:     testFee,
		CallbackGasLimit:      "500000",
		VRFCoordinatorV2:      liveCoord,
	}
}

// testTable has a complete row for every chain.
func testTable() chain.Table {
	local := completeRow("localhost")
	local.VRFCoordinatorV2 = ""

	return chain.Table{
		31337:    local,
		11155111: completeRow("sepolia"),
		43113:    completeRow("fuji"),
		1:        completeRow("mainnet"),
	}
}

var testNetworks = map[uint64]network.Network{
	31337:    {Name: network.Hardhat, ChainID: 31337},
	11155111: {Name: network.Sepolia, ChainID: 11155111, URLEnv: "SEPOLIA_RPC_URL", SaveDeployments: true},
	43113:    {Name: network.Fuji, ChainID: 43113, URLEnv: "AVALANCHE_FUJI_RPC_URL", SaveDeployments: true},
	1:        {Name: network.Mainnet, ChainID: 1, URLEnv: "MAINNET_RPC_URL", SaveDeployments: true},
}

// fakeContract records the transactions sent to it. Every receipt carries subID as the first
// event argument.
type fakeContract struct {
	address common.Address
	subID   uint64
	failOn  string

	methods []string
	args    [][]any
}

func (c *fakeContract) Address() common.Address { return c.address }

func (c *fakeContract) Transact(_ context.Context, method string, args ...any) (*types.Transaction, error) {
	if method == c.failOn {
		return nil, fmt.Errorf("%s reverted", method)
	}

	c.methods = append(c.methods, method)
	c.args = append(c.args, args)

	return types.NewTx(&types.LegacyTx{Nonce: uint64(len(c.methods))}), nil
}

func (c *fakeContract) Confirm(_ context.Context, tx *types.Transaction, _ uint64) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash()}, nil
}

func (c *fakeContract) EventArg(*types.Receipt, int) (any, error) {
	return c.subID, nil
}

func (c *fakeContract) count(method string) int {
	n := 0
	for _, m := range c.methods {
		if m == method {
			n++
		}
	}

	return n
}

// fakeDeployer deploys nothing. It hands out fixed addresses and records every call.
type fakeDeployer struct {
	coordinator *fakeContract
	abis        map[string]abi.ABI
	deployErr   error
	waitErr     error

	artifacts  map[string]datastore.DeployedArtifact
	deploys    []DeployContractInput
	contractAt []string
	waits      []uint64
}

var fakeAddresses = map[string]string{
	MockCoordinatorContract: mockAddress,
	RaffleContract:          raffleAddress,
}

func newFakeDeployer(t *testing.T) *fakeDeployer {
	t.Helper()

	return &fakeDeployer{
		coordinator: &fakeContract{address: common.HexToAddress(mockAddress), subID: 1},
		abis: map[string]abi.ABI{
			MockCoordinatorContract: mustABI(t, mockABIJSON),
			RaffleContract:          mustABI(t, raffleABIJSON),
		},
		artifacts: map[string]datastore.DeployedArtifact{},
	}
}

func (d *fakeDeployer) Deploy(_ context.Context, name string, opts DeployOptions) (datastore.DeployedArtifact, error) {
	d.deploys = append(d.deploys, DeployContractInput{Name: name, Options: opts})
	if d.deployErr != nil {
		return datastore.DeployedArtifact{}, d.deployErr
	}

	a := datastore.DeployedArtifact{
		Name:          name,
		Address:       fakeAddresses[name],
		ABI:           json.RawMessage(mockABIJSON),
		Args:          opts.Args,
		Confirmations: opts.WaitConfirmations,
		ChainID:       31337,
	}
	d.artifacts[name] = a

	return a, nil
}

func (d *fakeDeployer) Get(name string) (datastore.DeployedArtifact, error) {
	a, ok := d.artifacts[name]
	if !ok {
		return datastore.DeployedArtifact{}, fmt.Errorf("%s: %w", name, datastore.ErrArtifactNotFound)
	}

	return a, nil
}

func (d *fakeDeployer) ABI(name string) (abi.ABI, error) {
	a, ok := d.abis[name]
	if !ok {
		return abi.ABI{}, fmt.Errorf("%s: %w", name, contracts.ErrArtifactNotFound)
	}

	return a, nil
}

func (d *fakeDeployer) ContractAt(_ json.RawMessage, address string) (Contract, error) {
	d.contractAt = append(d.contractAt, address)
	return d.coordinator, nil
}

func (d *fakeDeployer) WaitConfirmations(_ context.Context, _ datastore.DeployedArtifact, confirmations uint64) error {
	d.waits = append(d.waits, confirmations)
	return d.waitErr
}

func (d *fakeDeployer) deployed(name string) []DeployContractInput {
	var out []DeployContractInput
	for _, in := range d.deploys {
		if in.Name == name {
			out = append(out, in)
		}
	}

	return out
}

type fakeVerifier struct {
	err      error
	requests []verify.Request
}

func (v *fakeVerifier) Verify(_ context.Context, req verify.Request) error {
	v.requests = append(v.requests, req)
	return v.err
}

var errDeploy = errors.New("insufficient funds for gas")

// newTestEnv returns an environment for a chain with the fake deployer and no verifier.
func newTestEnv(t *testing.T, lggr logger.Logger, chainID uint64, d *fakeDeployer) Environment {
	t.Helper()

	ctx := t.Context()

	return Environment{
		Network:          testNetworks[chainID],
		ChainID:          chainID,
		ChainConfig:      testTable(),
		Deployer:         d,
		Logger:           lggr,
		GetContext:       func() context.Context { return ctx },
		OperationsBundle: operations.NewBundle(ctx, lggr, nil),
	}
}

// emitterCode returns creation code for a contract that emits
// SubscriptionCreated(1, address(0)) on every call.
func emitterCode() []byte {
	sig := crypto.Keccak256([]byte("SubscriptionCreated(uint64,address)"))

	runtime := []byte{0x60, 0x01, 0x7f} // PUSH1 1, PUSH32
	runtime = append(runtime, sig...)
	runtime = append(runtime, 0x60, 0x20, 0x60, 0x00, 0xa2, 0x00) // PUSH1 32, PUSH1 0, LOG2, STOP

	return withInitCode(runtime)
}

// withInitCode prefixes runtime code with creation code that returns it. Constructor arguments
// appended after it are ignored.
func withInitCode(runtime []byte) []byte {
	n := byte(len(runtime))
	initCode := []byte{
		// CODECOPY(0, 12, n)
		0x60, n, 0x60, 0x0c, 0x60, 0x00, 0x39,
		// RETURN(0, n)
		0x60, n, 0x60, 0x00, 0xf3,
	}

	return append(initCode, runtime...)
}

// testLoader serves stub contracts with the real constructor and event signatures.
func testLoader(t *testing.T) contracts.MemoryLoader {
	t.Helper()

	load := func(name, rawABI string, code []byte) *contracts.Artifact {
		data := fmt.Sprintf(`{"contractName": %q, "abi": %s, "bytecode": %q}`, name, rawABI, hexutil.Encode(code))
		a, err := contracts.Parse(name, []byte(data))
		require.NoError(t, err)

		return a
	}

	return contracts.MemoryLoader{
		MockCoordinatorContract: load(MockCoordinatorContract, mockABIJSON, emitterCode()),
		RaffleContract:          load(RaffleContract, raffleABIJSON, withInitCode([]byte{0x00})),
	}
}
