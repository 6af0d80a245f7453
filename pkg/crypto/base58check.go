package crypto

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Prefix is a Tezos base58check prefix together with the payload length it guards.
type Prefix struct {
	Name        string
	Bytes       []byte
	PayloadSize int
}

var (
	PrefixTz1 = Prefix{Name: "tz1", Bytes: []byte{6, 161, 159}, PayloadSize: 20}
	PrefixTz2 = Prefix{Name: "tz2", Bytes: []byte{6, 161, 161}, PayloadSize: 20}
	PrefixTz3 = Prefix{Name: "tz3", Bytes: []byte{6, 161, 164}, PayloadSize: 20}
	PrefixTz4 = Prefix{Name: "tz4", Bytes: []byte{6, 161, 166}, PayloadSize: 20}
	PrefixKT1 = Prefix{Name: "KT1", Bytes: []byte{2, 90, 121}, PayloadSize: 20}
	PrefixSr1 = Prefix{Name: "sr1", Bytes: []byte{6, 124, 117}, PayloadSize: 20}

	PrefixEd25519PublicKey = Prefix{Name: "edpk", Bytes: []byte{13, 15, 37, 217}, PayloadSize: 32}
	PrefixEd25519Seed      = Prefix{Name: "edsk", Bytes: []byte{13, 15, 58, 7}, PayloadSize: 32}
	PrefixEd25519SecretKey = Prefix{Name: "edsk", Bytes: []byte{43, 246, 78, 7}, PayloadSize: 64}
	PrefixEd25519Signature = Prefix{Name: "edsig", Bytes: []byte{9, 245, 205, 134, 18}, PayloadSize: 64}
	PrefixGenericSignature = Prefix{Name: "sig", Bytes: []byte{4, 130, 43}, PayloadSize: 64}
)

const checksumSize = 4

func checksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:checksumSize]
}

// B58CheckEncode encodes payload with the given prefix and a double SHA-256 checksum.
func B58CheckEncode(prefix Prefix, payload []byte) (string, error) {
	if len(payload) != prefix.PayloadSize {
		return "", fmt.Errorf("%s payload must be %d bytes, got %d", prefix.Name, prefix.PayloadSize, len(payload))
	}
	data := make([]byte, 0, len(prefix.Bytes)+len(payload)+checksumSize)
	data = append(data, prefix.Bytes...)
	data = append(data, payload...)
	data = append(data, checksum(data)...)
	return base58.Encode(data), nil
}

// B58CheckDecode decodes s, verifies the checksum and strips the expected prefix.
func B58CheckDecode(s string, prefix Prefix) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty %s string", prefix.Name)
	}
	raw := base58.Decode(s)
	if len(raw) != len(prefix.Bytes)+prefix.PayloadSize+checksumSize {
		return nil, fmt.Errorf("invalid %s length: %q", prefix.Name, s)
	}
	data, sum := raw[:len(raw)-checksumSize], raw[len(raw)-checksumSize:]
	if !bytes.Equal(checksum(data), sum) {
		return nil, fmt.Errorf("invalid %s checksum: %q", prefix.Name, s)
	}
	if !bytes.HasPrefix(data, prefix.Bytes) {
		return nil, fmt.Errorf("invalid %s prefix: %q", prefix.Name, s)
	}
	return append([]byte{}, data[len(prefix.Bytes):]...), nil
}
