package types

import (
	"fmt"
	"math/big"
)

type TokenStandard string

const (
	TokenStandardFA12 TokenStandard = "fa12"
	TokenStandardFA2  TokenStandard = "fa2"
)

func (s TokenStandard) String() string {
	return string(s)
}

// ParseTokenStandard maps the CLI spelling of a token standard.
func ParseTokenStandard(s string) (TokenStandard, error) {
	switch TokenStandard(s) {
	case TokenStandardFA12:
		return TokenStandardFA12, nil
	case TokenStandardFA2:
		return TokenStandardFA2, nil
	default:
		return "", fmt.Errorf("unsupported token standard %q, expected fa12 or fa2", s)
	}
}

// TokenRef identifies a token on the base chain. It is implemented by FA12 and FA2 only.
type TokenRef interface {
	Standard() TokenStandard
	ContractAddress() string
	isTokenRef()
}

// FA12 is a single-asset token identified by its contract address.
type FA12 struct {
	Address string
}

func (FA12) isTokenRef() {}

func (t FA12) Standard() TokenStandard { return TokenStandardFA12 }

func (t FA12) ContractAddress() string { return t.Address }

func (t FA12) String() string {
	return fmt.Sprintf("fa12(%s)", t.Address)
}

// FA2 is a multi-asset token identified by contract address and token id.
type FA2 struct {
	Address string
	TokenID *big.Int
}

func NewFA2(address string, tokenID uint64) FA2 {
	return FA2{Address: address, TokenID: new(big.Int).SetUint64(tokenID)}
}

func (FA2) isTokenRef() {}

func (t FA2) Standard() TokenStandard { return TokenStandardFA2 }

func (t FA2) ContractAddress() string { return t.Address }

func (t FA2) String() string {
	return fmt.Sprintf("fa2(%s, %s)", t.Address, t.TokenID)
}
