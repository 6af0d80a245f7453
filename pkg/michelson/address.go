package michelson

import (
	"fmt"
	"strings"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/crypto"
)

const (
	addressTagImplicit   byte = 0x00
	addressTagOriginated byte = 0x01
	addressTagRollup     byte = 0x03

	// AddressSize is the binary size of an address without entrypoint.
	AddressSize = 22
)

var implicitPrefixes = []crypto.Prefix{crypto.PrefixTz1, crypto.PrefixTz2, crypto.PrefixTz3, crypto.PrefixTz4}

// EncodeAddress converts a base58 address, optionally suffixed with %entrypoint,
// to its binary form.
func EncodeAddress(address string) ([]byte, error) {
	addr, entrypoint, _ := strings.Cut(address, "%")
	if len(addr) < 3 {
		return nil, fmt.Errorf("invalid address %q", address)
	}

	out := make([]byte, 0, AddressSize+len(entrypoint))
	switch prefix := addr[:3]; prefix {
	case "tz1", "tz2", "tz3", "tz4":
		for curve, p := range implicitPrefixes {
			if p.Name != prefix {
				continue
			}
			hash, err := crypto.B58CheckDecode(addr, p)
			if err != nil {
				return nil, err
			}
			out = append(out, addressTagImplicit, byte(curve))
			out = append(out, hash...)
		}
	case "KT1":
		hash, err := crypto.B58CheckDecode(addr, crypto.PrefixKT1)
		if err != nil {
			return nil, err
		}
		out = append(out, addressTagOriginated)
		out = append(out, hash...)
		out = append(out, 0x00)
	case "sr1":
		hash, err := crypto.B58CheckDecode(addr, crypto.PrefixSr1)
		if err != nil {
			return nil, err
		}
		out = append(out, addressTagRollup)
		out = append(out, hash...)
		out = append(out, 0x00)
	default:
		return nil, fmt.Errorf("unsupported address kind %q", address)
	}
	if entrypoint != "" {
		if entrypoint == "default" || len(entrypoint) > 31 {
			return nil, fmt.Errorf("invalid entrypoint %q", entrypoint)
		}
		out = append(out, entrypoint...)
	}
	return out, nil
}

// DecodeAddress is the inverse of EncodeAddress.
func DecodeAddress(data []byte) (string, error) {
	if len(data) < AddressSize {
		return "", fmt.Errorf("address must be at least %d bytes, got %d", AddressSize, len(data))
	}
	var (
		addr string
		err  error
	)
	switch data[0] {
	case addressTagImplicit:
		curve := int(data[1])
		if curve >= len(implicitPrefixes) {
			return "", fmt.Errorf("unknown implicit account curve %d", curve)
		}
		addr, err = crypto.B58CheckEncode(implicitPrefixes[curve], data[2:AddressSize])
	case addressTagOriginated:
		if data[AddressSize-1] != 0x00 {
			return "", fmt.Errorf("invalid originated address padding")
		}
		addr, err = crypto.B58CheckEncode(crypto.PrefixKT1, data[1:AddressSize-1])
	case addressTagRollup:
		if data[AddressSize-1] != 0x00 {
			return "", fmt.Errorf("invalid rollup address padding")
		}
		addr, err = crypto.B58CheckEncode(crypto.PrefixSr1, data[1:AddressSize-1])
	default:
		return "", fmt.Errorf("unknown address tag 0x%02x", data[0])
	}
	if err != nil {
		return "", err
	}
	if entrypoint := data[AddressSize:]; len(entrypoint) > 0 {
		addr += "%" + string(entrypoint)
	}
	return addr, nil
}
