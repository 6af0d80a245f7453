package michelson

import (
	"fmt"
	"math/big"
)

// EncodeInt encodes a signed integer in the zarith format used by Micheline int nodes:
// the first byte carries a sign bit and 6 bits of magnitude, following bytes 7 bits each.
func EncodeInt(v *big.Int) []byte {
	abs := new(big.Int).Abs(v)
	first := byte(new(big.Int).And(abs, big.NewInt(0x3f)).Uint64())
	if v.Sign() < 0 {
		first |= 0x40
	}
	abs.Rsh(abs, 6)
	out := []byte{first}
	for abs.Sign() > 0 {
		out[len(out)-1] |= 0x80
		out = append(out, byte(new(big.Int).And(abs, big.NewInt(0x7f)).Uint64()))
		abs.Rsh(abs, 7)
	}
	return out
}

// DecodeInt reads a zarith signed integer and reports how many bytes it used.
func DecodeInt(data []byte) (*big.Int, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("zarith: unexpected end of input")
	}
	first := data[0]
	negative := first&0x40 != 0
	value := big.NewInt(int64(first & 0x3f))
	shift := uint(6)
	i := 1
	more := first&0x80 != 0
	for more {
		if i >= len(data) {
			return nil, 0, fmt.Errorf("zarith: unterminated integer")
		}
		b := data[i]
		if b == 0 {
			return nil, 0, fmt.Errorf("zarith: non-canonical trailing zero byte")
		}
		chunk := new(big.Int).SetUint64(uint64(b & 0x7f))
		value.Or(value, chunk.Lsh(chunk, shift))
		shift += 7
		more = b&0x80 != 0
		i++
	}
	if negative {
		value.Neg(value)
	}
	return value, i, nil
}

// EncodeNat encodes a natural number in the unsigned zarith format (7 bits per byte).
func EncodeNat(v *big.Int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("zarith: natural number cannot be negative: %s", v)
	}
	abs := new(big.Int).Set(v)
	var out []byte
	for {
		b := byte(new(big.Int).And(abs, big.NewInt(0x7f)).Uint64())
		abs.Rsh(abs, 7)
		if abs.Sign() == 0 {
			return append(out, b), nil
		}
		out = append(out, b|0x80)
	}
}

// DecodeNat reads an unsigned zarith natural and reports how many bytes it used.
func DecodeNat(data []byte) (*big.Int, int, error) {
	value := new(big.Int)
	shift := uint(0)
	for i, b := range data {
		if i > 0 && b == 0 {
			return nil, 0, fmt.Errorf("zarith: non-canonical trailing zero byte")
		}
		chunk := new(big.Int).SetUint64(uint64(b & 0x7f))
		value.Or(value, chunk.Lsh(chunk, shift))
		shift += 7
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("zarith: unexpected end of input")
	}
	return nil, 0, fmt.Errorf("zarith: unterminated natural")
}
