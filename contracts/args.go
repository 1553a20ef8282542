package contracts

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EncodeConstructorArgs ABI-encodes textual constructor arguments, the form verification
// services expect them in.
func (a *Artifact) EncodeConstructorArgs(values []string) ([]byte, error) {
	args, err := ConvertArgs(a.ABI.Constructor.Inputs, values)
	if err != nil {
		return nil, err
	}

	return a.ABI.Constructor.Inputs.Pack(args...)
}

// ConvertArgs converts textual arguments to the Go values the ABI encoder expects for args.
func ConvertArgs(args abi.Arguments, values []string) ([]any, error) {
	if len(args) != len(values) {
		return nil, fmt.Errorf("got %d arguments, expected %d", len(values), len(args))
	}

	out := make([]any, len(values))
	for i, arg := range args {
		v, err := ConvertArg(arg.Type, values[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, arg.Name, err)
		}
		out[i] = v
	}

	return out, nil
}

// ConvertArg converts a textual value to the Go value of an ABI type. Integers may be decimal
// or 0x-prefixed hex.
func ConvertArg(t abi.Type, s string) (any, error) {
	s = strings.TrimSpace(s)

	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}

		return common.HexToAddress(s), nil
	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", s)
		}

		return convertInt(t, n)
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q: %w", s, err)
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))

		return v.Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}

// convertInt returns n as the Go integer type the ABI encoder uses for t: sized native integers
// up to 64 bits, *big.Int beyond.
func convertInt(t abi.Type, n *big.Int) (any, error) {
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for %s", n, t.String())
	}
	if outOfRange(t, n) {
		return nil, fmt.Errorf("value %s overflows %s", n, t.String())
	}

	rt := t.GetType()
	if rt == reflect.TypeOf((*big.Int)(nil)) {
		return n, nil
	}

	v := reflect.New(rt).Elem()
	if t.T == abi.UintTy {
		v.SetUint(n.Uint64())
	} else {
		v.SetInt(n.Int64())
	}

	return v.Interface(), nil
}

func outOfRange(t abi.Type, n *big.Int) bool {
	if t.T == abi.UintTy {
		return n.BitLen() > t.Size
	}

	// int<N> holds [-2^(N-1), 2^(N-1)-1].
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1)) //nolint:gosec // abi sizes are at most 256
	if n.Sign() < 0 {
		return new(big.Int).Neg(n).Cmp(limit) > 0
	}

	return n.Cmp(limit) >= 0
}
