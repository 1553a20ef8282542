package deploy

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/raffle-labs/raffle-deployments/chain/evm"
	"github.com/raffle-labs/raffle-deployments/chain/evm/provider"
	"github.com/raffle-labs/raffle-deployments/config/chain"
	"github.com/raffle-labs/raffle-deployments/config/network"
	"github.com/raffle-labs/raffle-deployments/contracts"
	"github.com/raffle-labs/raffle-deployments/datastore"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

func newSimChain(t *testing.T) evm.Chain {
	t.Helper()

	p := provider.NewSimChainProvider(provider.SimChainProviderConfig{})
	c, err := p.Initialize(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	return c
}

func newTestEVMDeployer(
	t *testing.T, c evm.Chain, store datastore.MutableArtifactStore, persistent bool, lggr logger.Logger,
) *EVMDeployer {
	t.Helper()

	d, err := NewEVMDeployer(EVMDeployerConfig{
		Chain:      c,
		Loader:     testLoader(t),
		Store:      store,
		Logger:     lggr,
		Persistent: persistent,
		ReportGas:  true,
	})
	require.NoError(t, err)

	return d
}

func TestNewEVMDeployer(t *testing.T) {
	t.Parallel()

	_, err := NewEVMDeployer(EVMDeployerConfig{Logger: logger.Nop()})
	require.ErrorContains(t, err, "chain client and confirm function are required")

	c := newSimChain(t)
	_, err = NewEVMDeployer(EVMDeployerConfig{Chain: c, Logger: logger.Nop()})
	require.ErrorContains(t, err, "artifact loader is required")

	_, err = NewEVMDeployer(EVMDeployerConfig{Chain: c, Loader: contracts.MemoryLoader{}, Logger: logger.Nop()})
	require.ErrorContains(t, err, "artifact store is required")
}

func TestEVMDeployer_Deploy(t *testing.T) {
	t.Parallel()

	c := newSimChain(t)
	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)
	store := datastore.NewMemoryArtifactStore()
	d := newTestEVMDeployer(t, c, store, false, lggr)

	got, err := d.Deploy(t.Context(), MockCoordinatorContract, DeployOptions{
		Args:              MockArgs(),
		Log:               true,
		WaitConfirmations: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, MockCoordinatorContract, got.Name)
	assert.True(t, common.IsHexAddress(got.Address))
	assert.Equal(t, MockArgs(), got.Args)
	assert.Equal(t, uint64(2), got.Confirmations)
	assert.Equal(t, uint64(31337), got.ChainID)
	assert.Equal(t, types.ReceiptStatusSuccessful, got.Receipt.Status)
	assert.NotZero(t, got.Receipt.GasUsed)
	assert.JSONEq(t, mockABIJSON, string(got.ABI))

	code, err := c.Client.CodeAt(t.Context(), got.ContractAddress(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, code)

	head, err := c.Client.BlockNumber(t.Context())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, head, got.Receipt.BlockNumber+1, "waited for two confirmations")

	stored, err := d.Get(MockCoordinatorContract)
	require.NoError(t, err)
	assert.Equal(t, got, stored)

	assert.Equal(t, 1, logs.FilterMessageSnippet(`deploying "VRFCoordinatorV2Mock"`).Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet(`deployed "VRFCoordinatorV2Mock" at`).Len())
	assert.Equal(t, 1, logs.FilterMessage("Gas report").Len())

	// The in-process chain always redeploys.
	again, err := d.Deploy(t.Context(), MockCoordinatorContract, DeployOptions{Args: MockArgs()})
	require.NoError(t, err)
	assert.NotEqual(t, got.Address, again.Address)
}

func TestEVMDeployer_DeployErrors(t *testing.T) {
	t.Parallel()

	c := newSimChain(t)

	tests := []struct {
		name       string
		persistent bool
		giveName   string
		giveOpts   DeployOptions
		wantErr    string
		wantErrIs  error
	}{
		{
			name:       "no confirmations on a persistent network",
			persistent: true,
			giveName:   RaffleContract,
			giveOpts:   DeployOptions{Args: testArgs().List()},
			wantErr:    "wait confirmations must be at least 1 on a persistent network",
		},
		{
			name:      "unknown contract",
			giveName:  "Lottery",
			wantErrIs: contracts.ErrArtifactNotFound,
		},
		{
			name:     "wrong argument count",
			giveName: MockCoordinatorContract,
			giveOpts: DeployOptions{Args: []string{"1"}},
			wantErr:  "invalid constructor arguments for VRFCoordinatorV2Mock",
		},
		{
			name:      "unknown account",
			giveName:  MockCoordinatorContract,
			giveOpts:  DeployOptions{From: "owner", Args: MockArgs()},
			wantErrIs: evm.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := datastore.NewMemoryArtifactStore()
			d := newTestEVMDeployer(t, c, store, tt.persistent, logger.Test(t))

			_, err := d.Deploy(t.Context(), tt.giveName, tt.giveOpts)
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
			} else {
				require.ErrorContains(t, err, tt.wantErr)
			}

			records, err := store.Fetch()
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestEVMDeployer_ReusesUnchangedArtifacts(t *testing.T) {
	t.Parallel()

	c := newSimChain(t)
	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)
	store := datastore.NewMemoryArtifactStore()
	d := newTestEVMDeployer(t, c, store, true, lggr)
	opts := DeployOptions{Args: MockArgs(), Log: true, WaitConfirmations: 1}

	first, err := d.Deploy(t.Context(), MockCoordinatorContract, opts)
	require.NoError(t, err)

	second, err := d.Deploy(t.Context(), MockCoordinatorContract, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, logs.FilterMessageSnippet("reusing").Len())

	opts.Args = []string{"1", "1"}
	third, err := d.Deploy(t.Context(), MockCoordinatorContract, opts)
	require.NoError(t, err)
	assert.NotEqual(t, first.Address, third.Address, "changed arguments redeploy")
}

func TestEVMDeployer_ContractAt(t *testing.T) {
	t.Parallel()

	c := newSimChain(t)
	d := newTestEVMDeployer(t, c, datastore.NewMemoryArtifactStore(), false, logger.Test(t))

	mock, err := d.Deploy(t.Context(), MockCoordinatorContract, DeployOptions{Args: MockArgs(), WaitConfirmations: 1})
	require.NoError(t, err)

	coordinator, err := d.ContractAt(mock.ABI, mock.Address)
	require.NoError(t, err)
	assert.Equal(t, mock.ContractAddress(), coordinator.Address())

	tx, err := coordinator.Transact(t.Context(), "createSubscription")
	require.NoError(t, err)
	receipt, err := coordinator.Confirm(t.Context(), tx, 1)
	require.NoError(t, err)

	subID, err := coordinator.EventArg(receipt, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), subID)

	owner, err := coordinator.EventArg(receipt, 1)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, owner)

	_, err = coordinator.EventArg(receipt, 2)
	require.ErrorContains(t, err, "event SubscriptionCreated has no argument 2")

	_, err = coordinator.Transact(t.Context(), "requestRandomWords")
	require.ErrorContains(t, err, "failed to call requestRandomWords")

	_, err = d.ContractAt(mock.ABI, "not-an-address")
	require.ErrorIs(t, err, datastore.ErrInvalidAddress)

	_, err = d.ContractAt(json.RawMessage(`{`), mock.Address)
	require.ErrorContains(t, err, "failed to parse abi")
}

func TestEVMContract_EventArg(t *testing.T) {
	t.Parallel()

	c := newSimChain(t)
	d := newTestEVMDeployer(t, c, datastore.NewMemoryArtifactStore(), false, logger.Test(t))

	address := common.HexToAddress(mockAddress)
	contract, err := d.ContractAt(json.RawMessage(mockABIJSON), mockAddress)
	require.NoError(t, err)

	event := mustABI(t, mockABIJSON).Events["SubscriptionCreated"]
	owner := common.HexToAddress(raffleAddress)
	data, err := event.Inputs.NonIndexed().Pack(owner)
	require.NoError(t, err)

	receipt := &types.Receipt{Logs: []*types.Log{
		// Logs of other contracts and unknown events are skipped.
		{Address: common.HexToAddress(liveCoord), Topics: []common.Hash{event.ID, common.BigToHash(big.NewInt(99))}, Data: data},
		{Address: address, Topics: []common.Hash{common.HexToHash("0x01")}},
		{Address: address, Topics: []common.Hash{event.ID, common.BigToHash(big.NewInt(42))}, Data: data},
	}}

	got, err := contract.EventArg(receipt, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)

	got, err = contract.EventArg(receipt, 1)
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	_, err = contract.EventArg(&types.Receipt{}, 0)
	require.ErrorContains(t, err, "no event emitted by")

	_, err = contract.EventArg(nil, 0)
	require.ErrorContains(t, err, "receipt is nil")
}

func TestEVMDeployer_WaitConfirmations(t *testing.T) {
	t.Parallel()

	c := newSimChain(t)
	d := newTestEVMDeployer(t, c, datastore.NewMemoryArtifactStore(), false, logger.Test(t))

	mock, err := d.Deploy(t.Context(), MockCoordinatorContract, DeployOptions{Args: MockArgs(), WaitConfirmations: 1})
	require.NoError(t, err)

	require.NoError(t, d.WaitConfirmations(t.Context(), mock, VerificationBlockConfirmations))

	head, err := c.Client.BlockNumber(t.Context())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, head, mock.Receipt.BlockNumber+VerificationBlockConfirmations-1)

	missing := mock
	missing.TransactionHash = common.HexToHash("0xdead").Hex()
	require.Error(t, d.WaitConfirmations(t.Context(), missing, 1))
}

// TestRunner_LocalChain runs the full deployment on the in-process chain.
func TestRunner_LocalChain(t *testing.T) {
	t.Parallel()

	c := newSimChain(t)
	store := datastore.NewMemoryArtifactStore()
	lggr := logger.Test(t)
	d := newTestEVMDeployer(t, c, store, false, lggr)

	env := Environment{
		Network:     network.Network{Name: network.Hardhat, ChainID: network.EphemeralChainID},
		ChainID:     c.ChainID,
		ChainConfig: chain.Defaults(),
		Deployer:    d,
		Artifacts:   store,
		Logger:      lggr,
	}
	runner := NewRunner(DefaultRegistry(), env)

	require.NoError(t, runner.Fixture(t.Context(), TagAll))

	mock, err := store.Get(MockCoordinatorContract)
	require.NoError(t, err)
	assert.Equal(t, []string{MockBaseFee, MockGasPriceLink}, mock.Args)

	raffle, err := store.Get(RaffleContract)
	require.NoError(t, err)
	defaults := chain.Defaults()[network.EphemeralChainID]
	assert.Equal(t, []string{
		mock.Address,
		defaults.RaffleEntranceFee,
		defaults.GasLane,
		"1",
		defaults.CallbackGasLimit,
		defaults.KeepersUpdateInterval,
	}, raffle.Args)

	reports, err := runner.Reporter().GetReports()
	require.NoError(t, err)
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.Def.ID)
	}
	assert.Equal(t, []string{
		"deploy-contract", "create-subscription", "fund-subscription", "setup-subscription", "deploy-contract",
	}, ids)

	// Selecting only the raffle pulls in the mocks through the fixture.
	require.NoError(t, runner.Fixture(t.Context(), TagRaffle))
	_, err = store.Get(MockCoordinatorContract)
	require.NoError(t, err)
}

func TestRunner_LocalChain_MalformedConfig(t *testing.T) {
	t.Parallel()

	c := newSimChain(t)
	store := datastore.NewMemoryArtifactStore()
	lggr := logger.Test(t)
	d := newTestEVMDeployer(t, c, store, false, lggr)

	table := chain.Defaults()
	row := table[network.EphemeralChainID]
	row.GasLane = "0x1234"
	table[network.EphemeralChainID] = row

	env := Environment{
		Network:     network.Network{Name: network.Hardhat, ChainID: network.EphemeralChainID},
		ChainID:     c.ChainID,
		ChainConfig: table,
		Deployer:    d,
		Artifacts:   store,
		Logger:      lggr,
	}
	runner := NewRunner(DefaultRegistry(), env)

	head, err := c.Client.BlockNumber(t.Context())
	require.NoError(t, err)

	err = runner.Run(t.Context(), TagRaffle)
	require.ErrorIs(t, err, ErrConfiguration)
	require.NotErrorIs(t, err, ErrCollaborator)
	assert.Contains(t, err.Error(), string(chain.FieldGasLane))

	reports, err := runner.Reporter().GetReports()
	require.NoError(t, err)
	assert.Empty(t, reports, "no operation runs after a configuration error")

	_, err = store.Get(MockCoordinatorContract)
	require.ErrorIs(t, err, datastore.ErrArtifactNotFound)

	after, err := c.Client.BlockNumber(t.Context())
	require.NoError(t, err)
	assert.Equal(t, head, after, "no transaction is mined after a configuration error")
}
