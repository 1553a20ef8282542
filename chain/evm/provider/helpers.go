package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ContractCaller is an interface that defines the CallContract method. This is copied from the
// go-ethereum package method to limit the scope of dependencies provided to the functions.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// checkReceipt returns an error carrying the revert reason when the receipt has a failed status.
func checkReceipt(
	ctx context.Context, caller ContractCaller, tx *types.Transaction, receipt *types.Receipt,
) error {
	if receipt == nil {
		return fmt.Errorf("receipt was nil for tx %s", tx.Hash().Hex())
	}
	if receipt.Status != types.ReceiptStatusFailed {
		return nil
	}

	reason, err := getErrorReasonFromTx(ctx, caller, txSender(tx), tx, receipt)
	if err == nil && reason != "" {
		return fmt.Errorf("tx %s reverted: %s", tx.Hash().Hex(), reason)
	}

	return fmt.Errorf("tx %s reverted, could not decode error reason", tx.Hash().Hex())
}

// txSender recovers the sender of a signed transaction. The zero address is returned when the
// signature cannot be recovered.
func txSender(tx *types.Transaction) common.Address {
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return common.Address{}
	}

	return from
}

// getErrorReasonFromTx retrieves the error reason from a transaction by simulating the call
// using the CallContract method. If the transaction reverts, it attempts to extract the
// error reason from the returned error.
func getErrorReasonFromTx(
	ctx context.Context,
	caller ContractCaller,
	from common.Address,
	tx *types.Transaction,
	receipt *types.Receipt,
) (string, error) {
	call := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Data:     tx.Data(),
		Value:    tx.Value(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
	}

	if _, err := caller.CallContract(ctx, call, receipt.BlockNumber); err != nil {
		reason, perr := getJSONErrorData(err)
		if perr == nil {
			return reason, nil
		}

		if reason == "" {
			return err.Error(), nil
		}
	}

	return "", fmt.Errorf("tx %s reverted with no reason", tx.Hash().Hex())
}

// getJSONErrorData extracts the error data from a JSON Error.
func getJSONErrorData(err error) (string, error) {
	if err == nil {
		return "", errors.New("cannot parse nil error")
	}

	// Matches the private JSON error type of the go-ethereum rpc package.
	type jsonError interface {
		Error() string
		ErrorCode() int
		ErrorData() any
	}

	var jerr jsonError
	if !errors.As(err, &jerr) {
		return "", fmt.Errorf("error must be of type jsonError: %w", err)
	}

	data := fmt.Sprintf("%s", jerr.ErrorData())
	if data == "" && strings.Contains(jerr.Error(), "missing trie node") {
		return "", errors.New("missing trie node, likely due to not using an archive node")
	}

	return data, nil
}

// WaitMinedWithInterval polls for the receipt of txHash every tick. It allows getting receipts
// faster on networks with instant blocks than bind.WaitMined does.
func WaitMinedWithInterval(
	ctx context.Context, tick time.Duration, b bind.DeployBackend, txHash common.Hash,
) (*types.Receipt, error) {
	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		receipt, err := b.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-queryTicker.C:
		}
	}
}

// BlockNumberer returns the number of the latest block.
type BlockNumberer interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// WaitConfirmations polls until the block holding the receipt is followed by enough blocks to
// give it the requested number of confirmations. The inclusion block counts as the first.
func WaitConfirmations(
	ctx context.Context, tick time.Duration, b BlockNumberer, receipt *types.Receipt, confirmations uint64,
) error {
	if confirmations <= 1 {
		return nil
	}

	queryTicker := time.NewTicker(tick)
	defer queryTicker.Stop()
	for {
		head, err := b.BlockNumber(ctx)
		if err == nil && confirmationsOf(receipt, head) >= confirmations {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-queryTicker.C:
		}
	}
}

// confirmationsOf returns how many blocks, including its own, confirm the receipt at head.
func confirmationsOf(receipt *types.Receipt, head uint64) uint64 {
	mined := receipt.BlockNumber.Uint64()
	if head < mined {
		return 0
	}

	return head - mined + 1
}
