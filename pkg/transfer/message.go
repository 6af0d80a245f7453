package transfer

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// DefaultPrefix is the inbox discriminator byte of transfer messages in the reference deployment.
const DefaultPrefix byte = 0x55

// MessageOptions are the parts of a signed transfer. Prefix is written as is; set it to
// DefaultPrefix unless the rollup was deployed with another discriminator.
type MessageOptions struct {
	PublicKey string
	Signature string
	Nonce     uint64
	Content   types.TransferContent
	Prefix    byte
}

func (o MessageOptions) validate() error {
	if o.PublicKey == "" {
		return newValidationError("public key", "public key is empty")
	}
	if o.Signature == "" {
		return newValidationError("signature", "signature is empty")
	}
	if o.Content.Destination == nil || o.Content.Destination.Address() == "" {
		return newValidationError("destination", "address is empty")
	}
	if len(o.Content.Token) == 0 {
		return newValidationError("token", "packed token is empty")
	}
	return ValidateAmount(o.Content.Amount)
}

// NewTransferMessage assembles the signed message structure.
func NewTransferMessage(publicKey, signature string, nonce uint64, content types.TransferContent) types.TransferMessage {
	return types.TransferMessage{
		PublicKey: types.Ed25519PublicKey{Ed25519: publicKey},
		Signature: types.Ed25519Signature{Ed25519: signature},
		Inner: types.Inner{
			Nonce:   nonce,
			Content: content,
		},
	}
}

// MarshalMessage returns the JSON body of a transfer message, wrapped in its kind tag.
func MarshalMessage(msg types.TransferMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(types.MessageEnvelope{Transfer: msg}); err != nil {
		return nil, &EncodingError{Reason: "marshal message", Err: err}
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EncodeMessage returns the raw inbox payload: the prefix byte followed by the JSON body.
func EncodeMessage(opts MessageOptions) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	body, err := MarshalMessage(NewTransferMessage(opts.PublicKey, opts.Signature, opts.Nonce, opts.Content))
	if err != nil {
		return nil, err
	}
	return append([]byte{opts.Prefix}, body...), nil
}

// SerializeMessage returns the hex form of EncodeMessage: two hex characters of prefix
// immediately followed by the hex of the JSON body.
func SerializeMessage(opts MessageOptions) (string, error) {
	raw, err := EncodeMessage(opts)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// ParseMessage decodes a hex payload produced by SerializeMessage. Unknown and missing
// fields are rejected at every level.
func ParseMessage(payload string, prefix byte) (*types.TransferMessage, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(payload, "0x"))
	if err != nil {
		return nil, &EncodingError{Reason: "payload is not hex", Err: err}
	}
	return DecodeMessage(raw, prefix)
}

// DecodeMessage is ParseMessage for raw bytes.
func DecodeMessage(raw []byte, prefix byte) (*types.TransferMessage, error) {
	if len(raw) == 0 {
		return nil, &EncodingError{Reason: "payload is empty"}
	}
	if raw[0] != prefix {
		return nil, &EncodingError{Reason: fmt.Sprintf("unexpected discriminator 0x%02x, expected 0x%02x", raw[0], prefix)}
	}

	envelope, err := exactFields(raw[1:], "Transfer")
	if err != nil {
		return nil, &EncodingError{Reason: "message", Err: err}
	}
	transfer, err := exactFields(envelope["Transfer"], "pkey", "signature", "inner")
	if err != nil {
		return nil, &EncodingError{Reason: "Transfer", Err: err}
	}
	var msg types.TransferMessage
	if msg.PublicKey.Ed25519, err = taggedString(transfer["pkey"], "Ed25519"); err != nil {
		return nil, &EncodingError{Reason: "pkey", Err: err}
	}
	if msg.Signature.Ed25519, err = taggedString(transfer["signature"], "Ed25519"); err != nil {
		return nil, &EncodingError{Reason: "signature", Err: err}
	}
	inner, err := exactFields(transfer["inner"], "nonce", "content")
	if err != nil {
		return nil, &EncodingError{Reason: "inner", Err: err}
	}
	if err := json.Unmarshal(inner["nonce"], &msg.Inner.Nonce); err != nil {
		return nil, &EncodingError{Reason: "nonce", Err: err}
	}
	if _, err := exactFields(inner["content"], "token", "destination", "amount"); err != nil {
		return nil, &EncodingError{Reason: "content", Err: err}
	}
	if err := json.Unmarshal(inner["content"], &msg.Inner.Content); err != nil {
		return nil, &EncodingError{Reason: "content", Err: err}
	}
	if err := validateDecodedContent(msg.Inner.Content); err != nil {
		return nil, &EncodingError{Reason: "content", Err: err}
	}
	return &msg, nil
}

// validateDecodedContent applies the checks BuildContent runs on its inputs.
func validateDecodedContent(content types.TransferContent) error {
	if len(content.Token) == 0 {
		return newValidationError("token", "packed token is empty")
	}
	if content.Destination == nil {
		return newValidationError("destination", "destination is missing")
	}
	if _, err := ValidateDestination(content.Destination.Address()); err != nil {
		return err
	}
	return ValidateAmount(content.Amount)
}

// exactFields decodes a JSON object that must have exactly the given keys.
func exactFields(data []byte, keys ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("expected an object, got null")
	}
	for _, key := range keys {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("missing field %q", key)
		}
	}
	if len(fields) != len(keys) {
		for key := range fields {
			if !slices.Contains(keys, key) {
				return nil, fmt.Errorf("unknown field %q", key)
			}
		}
	}
	return fields, nil
}

func taggedString(data []byte, tag string) (string, error) {
	fields, err := exactFields(data, tag)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(fields[tag], &s); err != nil {
		return "", err
	}
	return s, nil
}
