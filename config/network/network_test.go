package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    Network
		wantErr string
	}{
		{
			name: "valid in-process network",
			give: Network{Name: Hardhat, ChainID: EphemeralChainID},
		},
		{
			name:    "missing chain id",
			give:    Network{Name: "custom"},
			wantErr: "ChainID",
		},
		{
			name:    "missing name",
			give:    Network{ChainID: 1},
			wantErr: "Name",
		},
		{
			name:    "invalid url",
			give:    Network{Name: "custom", ChainID: 1, URL: "not a url"},
			wantErr: "URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.give.Validate()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNetwork_Predicates(t *testing.T) {
	t.Parallel()

	cfg := Defaults()

	hardhat, err := cfg.NetworkByName(Hardhat)
	require.NoError(t, err)
	assert.True(t, hardhat.InProcess())
	assert.True(t, hardhat.IsDevelopment())
	assert.True(t, hardhat.IsEphemeral())
	assert.False(t, hardhat.SaveDeployments)

	localhost, err := cfg.NetworkByName(Localhost)
	require.NoError(t, err)
	assert.False(t, localhost.InProcess())
	assert.True(t, localhost.IsDevelopment())
	assert.True(t, localhost.IsEphemeral())

	sepolia, err := cfg.NetworkByName(Sepolia)
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), sepolia.ChainID)
	assert.False(t, sepolia.InProcess())
	assert.False(t, sepolia.IsDevelopment())
	assert.False(t, sepolia.IsEphemeral())
	assert.True(t, sepolia.SaveDeployments)
	assert.Equal(t, "SEPOLIA_RPC_URL", sepolia.URLEnv)
	assert.Equal(t, "ethereum-testnet-sepolia", sepolia.DisplayName())

	assert.Equal(t, map[string]uint32{"deployer": 0, "player": 1}, sepolia.Accounts())
	custom := Network{NamedAccounts: map[string]uint32{"deployer": 3}}
	assert.Equal(t, map[string]uint32{"deployer": 3}, custom.Accounts())
}
