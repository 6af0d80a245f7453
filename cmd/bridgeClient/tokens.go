package main

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

const (
	tokenFA12 = types.TokenStandardFA12
	tokenFA2  = types.TokenStandardFA2
)

// parseToken builds a token reference from command line values. Range checks on the
// id are left to the transfer builder so that they are reported like any other input.
func parseToken(standard types.TokenStandard, address, tokenID string) (types.TokenRef, error) {
	switch standard {
	case types.TokenStandardFA12:
		return types.FA12{Address: address}, nil
	case types.TokenStandardFA2:
		id, ok := new(big.Int).SetString(tokenID, 10)
		if !ok {
			return nil, fmt.Errorf("invalid token id %q", tokenID)
		}
		return types.FA2{Address: address, TokenID: id}, nil
	default:
		return nil, fmt.Errorf("unsupported token standard %q", standard)
	}
}

// parsePrefix checks that a discriminator fits in one byte.
func parsePrefix(value uint) (byte, error) {
	if value > 0xff {
		return 0, fmt.Errorf("message prefix must fit in one byte, got %d", value)
	}
	return byte(value), nil
}

// waitArg maps a confirmation count to the octez-client --wait argument.
func waitArg(confirmations int) string {
	if confirmations <= 0 {
		return "none"
	}
	return strconv.Itoa(confirmations)
}
