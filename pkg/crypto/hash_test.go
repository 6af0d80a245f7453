package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlake2b256(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"},
		{"abc", "bddd813c634239723171ef3fee98579b94964e3bb1cb3e427262c8c068d52319"},
	}
	for _, tt := range tests {
		digest := Blake2b256([]byte(tt.input))
		assert.Equal(t, tt.expected, hex.EncodeToString(digest[:]), "input %q", tt.input)
	}
}

func TestBlake2b160(t *testing.T) {
	first := Blake2b160([]byte("edpk"))
	second := Blake2b160([]byte("edpk"))
	assert.Equal(t, first, second)
	assert.NotEqual(t, [20]byte{}, first)
	assert.NotEqual(t, first, Blake2b160([]byte("edpl")))

	// a 20 byte digest is not a truncated 32 byte one
	long := Blake2b256([]byte("edpk"))
	assert.NotEqual(t, long[:20], first[:])
}
