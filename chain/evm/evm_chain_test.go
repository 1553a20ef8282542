package evm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransactor(t *testing.T) *bind.TransactOpts {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(31337))
	require.NoError(t, err)

	return opts
}

func TestChain_Accounts(t *testing.T) {
	t.Parallel()

	deployer := newTransactor(t)
	player := newTransactor(t)
	c := Chain{
		ChainID: 31337,
		Accounts: map[string]*bind.TransactOpts{
			AccountDeployer: deployer,
			AccountPlayer:   player,
		},
	}

	got, err := c.Account(AccountDeployer)
	require.NoError(t, err)
	assert.Equal(t, deployer.From, got.From)

	_, err = c.Account("owner")
	require.ErrorIs(t, err, ErrAccountNotFound)

	assert.Equal(t, map[string]common.Address{
		AccountDeployer: deployer.From,
		AccountPlayer:   player.From,
	}, c.NamedAccounts())

	got, err = c.AccountByAddress(player.From)
	require.NoError(t, err)
	assert.Equal(t, player, got)

	_, err = c.AccountByAddress(common.HexToAddress("0x01"))
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestChain_Name(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		chainID uint64
		want    string
	}{
		{
			name:    "registered chain",
			chainID: chainsel.ETHEREUM_TESTNET_SEPOLIA.EvmChainID,
			want:    chainsel.ETHEREUM_TESTNET_SEPOLIA.Name,
		},
		{
			name:    "unregistered chain falls back to id",
			chainID: 987654321987,
			want:    "987654321987",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := Chain{ChainID: tt.chainID}
			assert.Equal(t, tt.want, c.Name())
		})
	}
}

func TestChain_Selector(t *testing.T) {
	t.Parallel()

	c := Chain{ChainID: chainsel.ETHEREUM_TESTNET_SEPOLIA.EvmChainID}
	sel, err := c.Selector()
	require.NoError(t, err)
	assert.Equal(t, chainsel.ETHEREUM_TESTNET_SEPOLIA.Selector, sel)
	assert.Contains(t, c.String(), "(11155111)")
}
