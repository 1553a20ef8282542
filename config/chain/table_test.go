package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffle-labs/raffle-deployments/config"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	table := Defaults()
	assert.Equal(t, []uint64{1, 31337, 43113, 11155111}, table.ChainIDs())

	require.NoError(t, table[31337].Validate(true))
	require.NoError(t, table[11155111].Validate(false))
	require.NoError(t, table[43113].Validate(false))
	require.Error(t, table[1].Validate(false))

	assert.Equal(t, "0x2386f26fc10000", table[31337].RaffleEntranceFee)
	assert.Empty(t, table[31337].VRFCoordinatorV2)
}

func TestTable_Lookup(t *testing.T) {
	t.Parallel()

	row, err := Defaults().Lookup(11155111)
	require.NoError(t, err)
	assert.Equal(t, "sepolia", row.Name)

	_, err = Defaults().Lookup(5)
	require.ErrorIs(t, err, config.ErrConfiguration)
	require.ErrorContains(t, err, "no configuration for chain id 5")
}

func TestLoad(t *testing.T) {
	t.Parallel()

	fp := filepath.Join(t.TempDir(), "chains.yaml")
	require.NoError(t, os.WriteFile(fp, []byte(`
chains:
  11155111:
    subscriptionId: "1234"
  1:
    vrfCoordinatorV2: "0x271682DEB8C4E0901D1a1550aD2e64D568E69909"
  137:
    name: polygon
    keepersUpdateInterval: "60"
`), 0o600))

	table, err := Load(fp)
	require.NoError(t, err)

	assert.Equal(t, "1234", table[11155111].SubscriptionID)
	assert.Equal(t, "sepolia", table[11155111].Name, "fields absent from the file are kept")
	assert.Equal(t, "0x271682DEB8C4E0901D1a1550aD2e64D568E69909", table[1].VRFCoordinatorV2)
	assert.Equal(t, "30", table[1].KeepersUpdateInterval)
	assert.Equal(t, Row{Name: "polygon", KeepersUpdateInterval: "60"}, table[137])

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read chain config file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("chains: ["), 0o600))
	_, err = Load(bad)
	require.ErrorContains(t, err, "failed to unmarshal chain config YAML")
}
