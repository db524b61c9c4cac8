package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// ErrInvalidLength is returned when a non-positive byte length is requested.
var ErrInvalidLength = errors.New("crypto: length must be positive")

// GenerateHexKey returns length random bytes hex encoded, suitable for HMAC secrets.
func GenerateHexKey(length int) (string, error) {
	buffer, err := randomBytes(length)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}

func randomBytes(length int) ([]byte, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}
