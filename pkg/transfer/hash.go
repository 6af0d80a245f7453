package transfer

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// The rollup verifier formats nonces in base 18, upper case, left-padded to 8 characters.
// Both values are part of the signed message format.
const (
	NonceBase  = 18
	NonceWidth = 8
)

// FormatNonce renders nonce the way it appears in the hash input. Values wider than
// NonceWidth digits are not truncated.
func FormatNonce(nonce uint64) string {
	s := strings.ToUpper(strconv.FormatUint(nonce, NonceBase))
	if len(s) < NonceWidth {
		s = strings.Repeat("0", NonceWidth-len(s)) + s
	}
	return s
}

// HashInput is the string whose BLAKE2b-256 digest is signed:
// nonce, packed token hex, destination address and amount, concatenated.
func HashInput(nonce uint64, content types.TransferContent) string {
	var b strings.Builder
	b.WriteString(FormatNonce(nonce))
	b.WriteString(content.Token.Hex())
	if content.Destination != nil {
		b.WriteString(content.Destination.Address())
	}
	b.WriteString(content.Amount)
	return b.String()
}

// HashToSign is the BLAKE2b-256 digest of HashInput. Signers sign these 32 bytes.
func HashToSign(nonce uint64, content types.TransferContent) [32]byte {
	return crypto.Blake2b256([]byte(HashInput(nonce, content)))
}

// HashToSignHex is HashToSign as lower-case hex.
func HashToSignHex(nonce uint64, content types.TransferContent) string {
	digest := HashToSign(nonce, content)
	return hex.EncodeToString(digest[:])
}
