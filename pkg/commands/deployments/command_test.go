package deployments

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffle-labs/raffle-deployments/config/chain"
	cfgenv "github.com/raffle-labs/raffle-deployments/config/env"
	"github.com/raffle-labs/raffle-deployments/config/network"
	"github.com/raffle-labs/raffle-deployments/datastore"
	engcfg "github.com/raffle-labs/raffle-deployments/engine/config"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

func staticLoader(engcfg.Files, logger.Logger) (*engcfg.Config, error) {
	return &engcfg.Config{
		Networks: network.Defaults(),
		Chains:   chain.Defaults(),
		Env:      &cfgenv.Config{},
	}, nil
}

func TestNewCommand_Structure(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Nop()})
	require.NoError(t, err)

	assert.Equal(t, "deployments", cmd.Use)
	subs := cmd.Commands()
	require.Len(t, subs, 1)
	assert.Equal(t, "list", subs[0].Use)
	assert.NotNil(t, subs[0].Flags().Lookup("network"))
	assert.NotNil(t, subs[0].Flags().Lookup("deployments"))

	_, err = NewCommand(Config{})
	require.ErrorContains(t, err, "missing required fields: Logger")
}

func TestList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sepolia, err := network.Defaults().NetworkByName(network.Sepolia)
	require.NoError(t, err)

	store, err := datastore.NewFileArtifactStore(filepath.Join(dir, sepolia.Name), sepolia.ChainID)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(datastore.DeployedArtifact{
		Name:            "Raffle",
		Address:         "0x5fbdb2315678afecb367f032d93f642f64180aa3",
		ABI:             json.RawMessage(`[]`),
		TransactionHash: "0xabc",
		Receipt:         datastore.Receipt{BlockNumber: 42},
		Args:            []string{"0x8103B0A8A00be2DDC778e6e7eaa21791Cd364625", "10000000000000000"},
		ChainID:         sepolia.ChainID,
	}))

	cmd, err := NewCommand(Config{Logger: logger.Test(t), ConfigLoader: staticLoader})
	require.NoError(t, err)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list", "--network", network.Sepolia, "--deployments", dir})
	require.NoError(t, cmd.Execute())

	got := out.String()
	assert.Contains(t, got, "Raffle")
	assert.Contains(t, got, "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	assert.Contains(t, got, "0xabc")
	assert.Contains(t, got, "42")
	assert.Contains(t, got, "TRANSACTION")
	assert.Contains(t, got, "0x8103B0A8A00be2DDC778e6e7eaa21791Cd364625, 10000000000000000")
}

func TestList_Empty(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Test(t), ConfigLoader: staticLoader})
	require.NoError(t, err)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list", "-n", network.Fuji, "--deployments", t.TempDir()})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "No deployments saved for network fuji")
}

func TestList_Errors(t *testing.T) {
	t.Parallel()

	cmd, err := NewCommand(Config{Logger: logger.Test(t), ConfigLoader: staticLoader})
	require.NoError(t, err)

	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"list", "-n", "unknown", "--deployments", t.TempDir()})
	require.ErrorContains(t, cmd.Execute(), `network "unknown" not found`)
}
