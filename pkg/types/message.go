package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// TokenBytes is the packed token descriptor. On the wire it is a JSON array of numbers.
type TokenBytes []byte

func (b TokenBytes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(v)))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (b *TokenBytes) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("token must be an array of bytes: %w", err)
	}
	if values == nil {
		return fmt.Errorf("token must be an array of bytes, got null")
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("token byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// Hex is the lower-case hexadecimal form of the packed token.
func (b TokenBytes) Hex() string {
	return hex.EncodeToString(b)
}

// Destination is a tagged rollup account. Tz1 is the only variant.
type Destination interface {
	Address() string
	isDestination()
}

type Tz1 struct {
	Addr string
}

func (Tz1) isDestination() {}

func (d Tz1) Address() string { return d.Addr }

func (d Tz1) String() string { return d.Addr }

func (d Tz1) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Tz1 string `json:"Tz1"`
	}{Tz1: d.Addr})
}

// UnmarshalDestination decodes a tagged destination object with exactly one known tag.
func UnmarshalDestination(data []byte) (Destination, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("destination must be a tagged object: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("destination must have exactly one tag, got %d", len(tagged))
	}
	for tag, raw := range tagged {
		if tag != "Tz1" {
			return nil, fmt.Errorf("unsupported destination tag %q", tag)
		}
		var addr string
		if err := json.Unmarshal(raw, &addr); err != nil {
			return nil, fmt.Errorf("tz1 destination must be a string: %w", err)
		}
		return Tz1{Addr: addr}, nil
	}
	return nil, fmt.Errorf("empty destination")
}

// TransferContent is what a transfer moves: a packed token, a destination and an amount.
// Amount is a base-10 string so that arbitrarily large values survive serialization.
type TransferContent struct {
	Token       TokenBytes  `json:"token"`
	Destination Destination `json:"destination"`
	Amount      string      `json:"amount"`
}

func (c *TransferContent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Token       TokenBytes      `json:"token"`
		Destination json.RawMessage `json:"destination"`
		Amount      string          `json:"amount"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw.Destination == nil {
		return fmt.Errorf("missing destination")
	}
	dest, err := UnmarshalDestination(raw.Destination)
	if err != nil {
		return err
	}
	c.Token = raw.Token
	c.Destination = dest
	c.Amount = raw.Amount
	return nil
}

type Inner struct {
	Nonce   uint64          `json:"nonce"`
	Content TransferContent `json:"content"`
}

type Ed25519PublicKey struct {
	Ed25519 string `json:"Ed25519"`
}

type Ed25519Signature struct {
	Ed25519 string `json:"Ed25519"`
}

// TransferMessage is the signed unit submitted to the rollup inbox.
type TransferMessage struct {
	PublicKey Ed25519PublicKey `json:"pkey"`
	Signature Ed25519Signature `json:"signature"`
	Inner     Inner            `json:"inner"`
}

// MessageEnvelope carries the message kind tag.
type MessageEnvelope struct {
	Transfer TransferMessage `json:"Transfer"`
}
