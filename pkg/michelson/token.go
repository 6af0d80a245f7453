package michelson

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// TokenType is the structural type token descriptors are packed against.
// Left is an FA1.2 contract, Right an FA2 (contract, token id) pair.
const TokenType = "(or (address %fa12) (pair %fa2 address nat))"

var ErrMalformedToken = errors.New("malformed token reference")

// TokenNode builds the Michelson value of a token reference. Addresses are emitted as
// bytes when optimized is set, which is the form PACK uses, and as strings otherwise.
func TokenNode(ref types.TokenRef, optimized bool) (Node, error) {
	switch t := ref.(type) {
	case types.FA12:
		addr, err := addressNode(t.Address, optimized)
		if err != nil {
			return nil, err
		}
		return NewPrim("Left", addr), nil
	case types.FA2:
		addr, err := addressNode(t.Address, optimized)
		if err != nil {
			return nil, err
		}
		if t.TokenID == nil {
			return nil, fmt.Errorf("%w: fa2 token id is missing", ErrMalformedToken)
		}
		if t.TokenID.Sign() < 0 {
			return nil, fmt.Errorf("%w: fa2 token id must be non-negative, got %s", ErrMalformedToken, t.TokenID)
		}
		id := Int{Value: new(big.Int).Set(t.TokenID)}
		return NewPrim("Right", NewPrim("Pair", addr, id)), nil
	case nil:
		return nil, fmt.Errorf("%w: no token reference", ErrMalformedToken)
	default:
		return nil, fmt.Errorf("%w: unsupported token kind %T", ErrMalformedToken, ref)
	}
}

func addressNode(address string, optimized bool) (Node, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: empty token address", ErrMalformedToken)
	}
	raw, err := EncodeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if optimized {
		return Bytes{Value: raw}, nil
	}
	return String{Value: address}, nil
}

// PackToken returns PACK(token) under TokenType.
func PackToken(ref types.TokenRef) ([]byte, error) {
	n, err := TokenNode(ref, true)
	if err != nil {
		return nil, err
	}
	return Pack(n)
}

// TokenData renders the token as a Michelson data expression, e.g. Right (Pair "KT1..." 7).
func TokenData(ref types.TokenRef) (string, error) {
	n, err := TokenNode(ref, false)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

// UnpackToken decodes packed bytes produced under TokenType back into a token reference.
// Both the optimized (bytes) and readable (string) address forms are accepted.
func UnpackToken(packed []byte) (types.TokenRef, error) {
	n, err := Unpack(packed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	p, ok := n.(Prim)
	if !ok || len(p.Args) != 1 {
		return nil, fmt.Errorf("%w: expected Left or Right, got %s", ErrMalformedToken, n)
	}
	switch p.Name {
	case "Left":
		addr, err := addressValue(p.Args[0])
		if err != nil {
			return nil, err
		}
		return types.FA12{Address: addr}, nil
	case "Right":
		pair, ok := p.Args[0].(Prim)
		if !ok || pair.Name != "Pair" || len(pair.Args) != 2 {
			return nil, fmt.Errorf("%w: expected Pair in right branch, got %s", ErrMalformedToken, p.Args[0])
		}
		addr, err := addressValue(pair.Args[0])
		if err != nil {
			return nil, err
		}
		id, err := natValue(pair.Args[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return types.FA2{Address: addr, TokenID: id}, nil
	default:
		return nil, fmt.Errorf("%w: expected Left or Right, got %s", ErrMalformedToken, p.Name)
	}
}

func addressValue(n Node) (string, error) {
	switch v := n.(type) {
	case Bytes:
		addr, err := DecodeAddress(v.Value)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return addr, nil
	case String:
		if _, err := EncodeAddress(v.Value); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return v.Value, nil
	default:
		return "", fmt.Errorf("%w: expected address, got %s", ErrMalformedToken, n)
	}
}
