package transfer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
)

const (
	aliceSecretKey = "edsk3QoqBuvdamxouPhin7swCvkQNgq4jP5KZPbwWNnwdZpSpJiEbq"
	alicePublicKey = "edpkvGfYw3LyB1UcCahKQk4rF2tvbMUk8GFiTuMjL75uGXrpvKXhjn"
	aliceAddress   = "tz1VSUr8wwNhLAzempoch5d6hLRiTh8Cjcjb"
	bobAddress     = "tz1aSkwEot3L2kmUvcoxzjMomb9mvBNuzFK6"
)

func testKT1(t *testing.T, seed byte) string {
	t.Helper()
	addr, err := crypto.B58CheckEncode(crypto.PrefixKT1, bytes.Repeat([]byte{seed}, 20))
	require.NoError(t, err)
	return addr
}
