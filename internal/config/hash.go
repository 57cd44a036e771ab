package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// Fingerprint identifies a config file revision, e.g. "blake3:3a8f...".
func Fingerprint(filePath string) (string, error) {
	h, err := ComputeBlake3Hash(filePath)
	if err != nil {
		return "", err
	}
	return "blake3:" + h, nil
}
