package transfer

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

const testSignature = "edsigtXomBKi5CTRf5cjATJWSyaRvhfYNHqSUGrn4SdbYRcGwQrUGjzEfQDTuqHhuA8b2d8NarZjz8TRf65WkpQmo423BtomS8Q"

func testOptions() MessageOptions {
	return MessageOptions{
		PublicKey: alicePublicKey,
		Signature: testSignature,
		Nonce:     3,
		Content:   testContent(),
		Prefix:    DefaultPrefix,
	}
}

func expectedBody() string {
	return `{"Transfer":{"pkey":{"Ed25519":"` + alicePublicKey + `"},` +
		`"signature":{"Ed25519":"` + testSignature + `"},` +
		`"inner":{"nonce":3,"content":{"token":[5,5,10],"destination":{"Tz1":"` + bobAddress + `"},"amount":"1000"}}}}`
}

func TestEncodeMessage_Layout(t *testing.T) {
	raw, err := EncodeMessage(testOptions())
	require.NoError(t, err)

	require.NotEmpty(t, raw)
	assert.Equal(t, DefaultPrefix, raw[0])
	assert.Equal(t, expectedBody(), string(raw[1:]))
}

func TestSerializeMessage(t *testing.T) {
	payload, err := SerializeMessage(testOptions())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(payload, "55"))
	assert.Equal(t, "55"+hex.EncodeToString([]byte(expectedBody())), payload)
	assert.Equal(t, strings.ToLower(payload), payload)

	again, err := SerializeMessage(testOptions())
	require.NoError(t, err)
	assert.Equal(t, payload, again, "serialization is deterministic")
}

func TestSerializeMessage_CustomPrefix(t *testing.T) {
	opts := testOptions()
	opts.Prefix = 0x01
	payload, err := SerializeMessage(opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload, "01"))

	_, err = ParseMessage(payload, DefaultPrefix)
	assert.True(t, IsEncoding(err))

	msg, err := ParseMessage(payload, 0x01)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), msg.Inner.Nonce)
}

func TestSerializeMessage_LargeAmountVerbatim(t *testing.T) {
	opts := testOptions()
	opts.Content.Amount = "123456789012345678901234567890"
	raw, err := EncodeMessage(opts)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount":"123456789012345678901234567890"`)
}

func TestEncodeMessage_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MessageOptions)
	}{
		{"empty public key", func(o *MessageOptions) { o.PublicKey = "" }},
		{"empty signature", func(o *MessageOptions) { o.Signature = "" }},
		{"missing destination", func(o *MessageOptions) { o.Content.Destination = nil }},
		{"empty destination", func(o *MessageOptions) { o.Content.Destination = types.Tz1{} }},
		{"empty token", func(o *MessageOptions) { o.Content.Token = nil }},
		{"bad amount", func(o *MessageOptions) { o.Content.Amount = "-5" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			_, err := SerializeMessage(opts)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestParseMessage_RoundTrip(t *testing.T) {
	payload, err := SerializeMessage(testOptions())
	require.NoError(t, err)

	for _, p := range []string{payload, "0x" + payload} {
		msg, err := ParseMessage(p, DefaultPrefix)
		require.NoError(t, err)
		assert.Equal(t, alicePublicKey, msg.PublicKey.Ed25519)
		assert.Equal(t, testSignature, msg.Signature.Ed25519)
		assert.Equal(t, uint64(3), msg.Inner.Nonce)
		assert.Equal(t, testContent(), msg.Inner.Content)
	}
}

func TestParseMessage_Rejects(t *testing.T) {
	body := expectedBody()
	encode := func(s string) string { return "55" + hex.EncodeToString([]byte(s)) }

	tests := []struct {
		name    string
		payload string
	}{
		{"not hex", "55zz"},
		{"empty", ""},
		{"prefix only", "55"},
		{"wrong prefix", "56" + hex.EncodeToString([]byte(body))},
		{"not json", encode("Transfer")},
		{"null body", encode("null")},
		{"unknown kind", encode(strings.Replace(body, `"Transfer"`, `"Withdraw"`, 1))},
		{"extra top level field", encode(strings.TrimSuffix(body, "}") + `,"extra":1}`)},
		{"missing signature", encode(strings.Replace(body, `"signature":{"Ed25519":"`+testSignature+`"},`, "", 1))},
		{"extra inner field", encode(strings.Replace(body, `"nonce":3,`, `"nonce":3,"fee":1,`, 1))},
		{"string nonce", encode(strings.Replace(body, `"nonce":3`, `"nonce":"3"`, 1))},
		{"negative nonce", encode(strings.Replace(body, `"nonce":3`, `"nonce":-3`, 1))},
		{"missing amount", encode(strings.Replace(body, `,"amount":"1000"`, "", 1))},
		{"numeric amount", encode(strings.Replace(body, `"amount":"1000"`, `"amount":1000`, 1))},
		{"extra content field", encode(strings.Replace(body, `"amount":"1000"`, `"amount":"1000","memo":"x"`, 1))},
		{"unknown destination tag", encode(strings.Replace(body, `"Tz1"`, `"Tz2"`, 1))},
		{"token byte out of range", encode(strings.Replace(body, "[5,5,10]", "[5,5,256]", 1))},
		{"token not an array", encode(strings.Replace(body, "[5,5,10]", `"05050a"`, 1))},
		{"untagged public key", encode(strings.Replace(body, `{"Ed25519":"`+alicePublicKey+`"}`, `"`+alicePublicKey+`"`, 1))},
		{"destination not a tz1", encode(strings.Replace(body, bobAddress, "tz1notanaddress", 1))},
		{"destination with bad checksum", encode(strings.Replace(body, bobAddress, bobAddress[:len(bobAddress)-1]+"7", 1))},
		{"kt1 destination", encode(strings.Replace(body, bobAddress, testKT1(t, 0x20), 1))},
		{"empty amount", encode(strings.Replace(body, `"amount":"1000"`, `"amount":""`, 1))},
		{"signed amount", encode(strings.Replace(body, `"amount":"1000"`, `"amount":"-1000"`, 1))},
		{"decimal amount", encode(strings.Replace(body, `"amount":"1000"`, `"amount":"10.5"`, 1))},
		{"empty token", encode(strings.Replace(body, "[5,5,10]", "[]", 1))},
		{"wrong key curve", encode(strings.Replace(body, `"pkey":{"Ed25519"`, `"pkey":{"Secp256k1"`, 1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage(tt.payload, DefaultPrefix)
			require.Error(t, err)
			assert.True(t, IsEncoding(err), "got %v", err)
		})
	}
}

func TestSerializeMessage_NestedStructure(t *testing.T) {
	payload, err := SerializeMessage(MessageOptions{
		PublicKey: alicePublicKey,
		Signature: testSignature,
		Nonce:     5,
		Content: types.TransferContent{
			Token:       types.TokenBytes{1, 2, 3},
			Destination: types.Tz1{Addr: bobAddress},
			Amount:      "1000",
		},
		Prefix: DefaultPrefix,
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(payload, "55"))

	raw, err := hex.DecodeString(payload[2:])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	expected := map[string]any{
		"Transfer": map[string]any{
			"pkey":      map[string]any{"Ed25519": alicePublicKey},
			"signature": map[string]any{"Ed25519": testSignature},
			"inner": map[string]any{
				"nonce": float64(5),
				"content": map[string]any{
					"token":       []any{float64(1), float64(2), float64(3)},
					"destination": map[string]any{"Tz1": bobAddress},
					"amount":      "1000",
				},
			},
		},
	}
	assert.Equal(t, expected, got)
}
