package transfer

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

func TestFormatNonce(t *testing.T) {
	tests := []struct {
		nonce    uint64
		expected string
	}{
		{0, "00000000"},
		{1, "00000001"},
		{10, "0000000A"},
		{17, "0000000H"},
		{18, "00000010"},
		{323, "000000HH"},
		{324, "00000100"},
		// 18^8 needs nine digits and is not truncated
		{11019960576, "100000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatNonce(tt.nonce), "nonce %d", tt.nonce)
	}

	max := FormatNonce(math.MaxUint64)
	assert.Greater(t, len(max), NonceWidth)
	assert.Regexp(t, "^[0-9A-H]+$", max)
}

func testContent() types.TransferContent {
	return types.TransferContent{
		Token:       types.TokenBytes{0x05, 0x05, 0x0a},
		Destination: types.Tz1{Addr: bobAddress},
		Amount:      "1000",
	}
}

func TestHashInput(t *testing.T) {
	assert.Equal(t, "00000010"+"05050a"+bobAddress+"1000", HashInput(18, testContent()))

	empty := testContent()
	empty.Destination = nil
	assert.Equal(t, "00000000"+"05050a"+"1000", HashInput(0, empty))
}

func TestHashToSign(t *testing.T) {
	content := testContent()

	digest := HashToSign(3, content)
	assert.Equal(t, crypto.Blake2b256([]byte(HashInput(3, content))), digest)
	assert.Equal(t, hex.EncodeToString(digest[:]), HashToSignHex(3, content))
	assert.Len(t, HashToSignHex(3, content), 64)

	assert.Equal(t, digest, HashToSign(3, content), "hash is deterministic")
	assert.NotEqual(t, digest, HashToSign(4, content))

	other := testContent()
	other.Amount = "1001"
	assert.NotEqual(t, digest, HashToSign(3, other))
}

func TestHashToSign_BuiltContent(t *testing.T) {
	content, err := BuildContent(types.FA12{Address: testKT1(t, 0x09)}, bobAddress, "5")
	require.NoError(t, err)

	input := HashInput(0, content)
	assert.Equal(t, "00000000"+content.Token.Hex()+bobAddress+"5", input)
}
