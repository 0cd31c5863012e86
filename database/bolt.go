package database

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

type BoltClient struct {
	DB *bbolt.DB
}

// OpenBolt opens (or creates) the bbolt file used as a local tracking profile.
func OpenBolt(path string) (*BoltClient, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("bolt storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	return &BoltClient{DB: db}, nil
}

func (c *BoltClient) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("Error closing bolt db: %v", err)
		}
	}
}
