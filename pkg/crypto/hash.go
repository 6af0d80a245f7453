package crypto

import "golang.org/x/crypto/blake2b"

// Blake2b256 is the unkeyed 32 byte BLAKE2b digest.
func Blake2b256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

// Blake2b160 is the unkeyed 20 byte BLAKE2b digest used for public key hashes.
func Blake2b160(data []byte) [20]byte {
	var out [20]byte
	h, err := blake2b.New(20, nil)
	if err != nil {
		// only fails for invalid sizes or oversized keys
		panic(err)
	}
	h.Write(data)
	copy(out[:], h.Sum(nil))
	return out
}
