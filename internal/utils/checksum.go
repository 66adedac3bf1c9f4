// internal/utils/checksum.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Checksum is the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum compares data against a hex SHA-256, ignoring case.
func VerifyChecksum(data []byte, expected string) bool {
	return strings.EqualFold(Checksum(data), strings.TrimSpace(expected))
}
