package transfer

import (
	"bytes"
	"context"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/michelson"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// Packer packs Michelson data against a type, usually by asking a live node.
type Packer interface {
	PackData(ctx context.Context, data, typ string) ([]byte, error)
}

// BuildContent validates the transfer inputs and packs the token locally.
func BuildContent(token types.TokenRef, destination, amount string) (types.TransferContent, error) {
	dest, err := ValidateDestination(destination)
	if err != nil {
		return types.TransferContent{}, err
	}
	if err := ValidateAmount(amount); err != nil {
		return types.TransferContent{}, err
	}
	if err := validateToken(token); err != nil {
		return types.TransferContent{}, err
	}
	packed, err := michelson.PackToken(token)
	if err != nil {
		return types.TransferContent{}, &EncodingError{Reason: "pack token", Err: err}
	}
	return types.TransferContent{
		Token:       packed,
		Destination: dest,
		Amount:      amount,
	}, nil
}

// BuildContentWithPacker builds the content locally and checks the packed token against
// the bytes returned by packer. A disagreement is an EncodingError.
func BuildContentWithPacker(ctx context.Context, packer Packer, token types.TokenRef, destination, amount string) (types.TransferContent, error) {
	content, err := BuildContent(token, destination, amount)
	if err != nil {
		return types.TransferContent{}, err
	}
	data, err := michelson.TokenData(token)
	if err != nil {
		return types.TransferContent{}, &EncodingError{Reason: "render token", Err: err}
	}
	remote, err := packer.PackData(ctx, data, michelson.TokenType)
	if err != nil {
		return types.TransferContent{}, &RemoteError{Op: "pack token", Err: err}
	}
	if !bytes.Equal(remote, content.Token) {
		return types.TransferContent{}, &EncodingError{
			Reason: "local token packing 0x" + content.Token.Hex() + " differs from remote 0x" + types.TokenBytes(remote).Hex(),
		}
	}
	return content, nil
}

// ValidateDestination checks that address is a well-formed tz1 address.
func ValidateDestination(address string) (types.Tz1, error) {
	if address == "" {
		return types.Tz1{}, newValidationError("destination", "address is empty")
	}
	if _, err := crypto.B58CheckDecode(address, crypto.PrefixTz1); err != nil {
		return types.Tz1{}, newValidationError("destination", "%v", err)
	}
	return types.Tz1{Addr: address}, nil
}

// ValidateAmount accepts non-negative base-10 integers of any size, written with digits only.
func ValidateAmount(amount string) error {
	if amount == "" {
		return newValidationError("amount", "amount is empty")
	}
	for i := 0; i < len(amount); i++ {
		if amount[i] < '0' || amount[i] > '9' {
			return newValidationError("amount", "%q is not a non-negative decimal integer", amount)
		}
	}
	return nil
}

func validateToken(token types.TokenRef) error {
	switch t := token.(type) {
	case nil:
		return newValidationError("token", "token reference is missing")
	case types.FA2:
		if t.TokenID == nil {
			return newValidationError("token.id", "fa2 token id is missing")
		}
		if t.TokenID.Sign() < 0 {
			return newValidationError("token.id", "fa2 token id must be non-negative, got %s", t.TokenID)
		}
	}
	return nil
}
