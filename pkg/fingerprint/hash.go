// Package fingerprint computes content fingerprints for the scanned files in
// parallel, consulting and filling the hash cache.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Size is the length of a fingerprint in hex characters
const Size = sha256.Size * 2

// Bytes returns the fingerprint of an in-memory content
func Bytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Reader returns the fingerprint of everything r yields, copying through buf
func Reader(r io.Reader, buf []byte) (string, error) {
	h := sha256.New()
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File returns the fingerprint of the file at path
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	fp, err := Reader(f, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return fp, nil
}

// Valid reports whether s looks like a fingerprint
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
