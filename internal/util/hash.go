package util

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// HashPixels returns the hex blake3 digest of a raw pixel buffer.
// Identical pixels always produce the same digest.
func HashPixels(pixels []byte) string {
	sum := blake3.Sum256(pixels)
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes a clipboard snapshot so the watcher can tell whether anything changed.
func Fingerprint(text []byte, imageData []byte) string {
	hasher := blake3.New(32, nil)
	hasher.Write(text)
	hasher.Write([]byte{0})
	if imageData != nil {
		hasher.Write(imageData)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
