package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blake2b"
)

// HashIP returns a salted BLAKE2b-256 digest so raw client addresses are never stored.
func HashIP(salt, ip string) string {
	if ip == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(salt + "|" + ip))
	return hex.EncodeToString(sum[:])
}

// HashAPIKey produces the value expected in AUTH_DEFAULT_HASH.
func HashAPIKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func CheckAPIKey(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
