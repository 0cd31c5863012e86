package utils

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"time"

	"github.com/google/uuid"
)

// NewOpaqueID returns a random UUIDv4 string (122 random bits).
func NewOpaqueID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	log.Printf("ERROR: Failed to generate uuid: %v", err)

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "fallback_" + time.Now().UTC().Format("20060102150405.000000000")
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
