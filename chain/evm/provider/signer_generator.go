package provider

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
)

// HardhatTestMnemonic is the well known development mnemonic. The accounts it derives are
// prefunded on the in-process chain the same way a Hardhat node prefunds them.
const HardhatTestMnemonic = "test test test test test test test test test test test junk"

// SignerGenerator generates geth's *bind.TransactOpts instances used to sign transactions.
type SignerGenerator interface {
	Generate(chainID *big.Int) (*bind.TransactOpts, error)
}

var (
	_ SignerGenerator = (*transactorFromRaw)(nil)
	_ SignerGenerator = (*transactorFromMnemonic)(nil)
	_ SignerGenerator = (*transactorRandom)(nil)
)

// TransactorFromRaw returns a generator which creates a transactor from a hex encoded private
// key. A leading 0x is accepted.
func TransactorFromRaw(privKey string) SignerGenerator {
	return &transactorFromRaw{privKey: privKey}
}

type transactorFromRaw struct {
	privKey string
}

func (g *transactorFromRaw) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(g.privKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key to ECDSA: %w", err)
	}

	return bind.NewKeyedTransactorWithChainID(privKey, chainID)
}

// TransactorFromMnemonic returns a generator which derives the key at m/44'/60'/0'/0/index from
// a BIP-39 mnemonic, the same path Hardhat uses for its accounts.
func TransactorFromMnemonic(mnemonic string, index uint32) SignerGenerator {
	return &transactorFromMnemonic{mnemonic: mnemonic, index: index}
}

type transactorFromMnemonic struct {
	mnemonic string
	index    uint32
}

func (g *transactorFromMnemonic) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	key, err := DeriveKey(g.mnemonic, g.index)
	if err != nil {
		return nil, err
	}

	return bind.NewKeyedTransactorWithChainID(key, chainID)
}

// DeriveKey derives the private key at m/44'/60'/0'/0/index from a BIP-39 mnemonic.
func DeriveKey(mnemonic string, index uint32) (*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("failed to derive seed from mnemonic: %w", err)
	}

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
		index,
	}
	for _, child := range path {
		key, err = key.Derive(child)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child key %d: %w", child, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}

	return priv.ToECDSA(), nil
}

// TransactorRandom returns a generator which creates a transactor with a random private key.
// The key is generated on the first call and reused afterwards.
func TransactorRandom() SignerGenerator {
	return &transactorRandom{}
}

type transactorRandom struct {
	privKey *ecdsa.PrivateKey
}

func (g *transactorRandom) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	if g.privKey == nil {
		privKey, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate random private key: %w", err)
		}
		g.privKey = privKey
	}

	return bind.NewKeyedTransactorWithChainID(g.privKey, chainID)
}
