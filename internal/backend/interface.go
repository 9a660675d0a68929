package backend

import (
	"context"
	"time"

	"salaryreport/internal/store"
)

// CleanupFunc releases the resources held by a backend
type CleanupFunc func() error

// BackendResult contains the report store and its cleanup function
type BackendResult struct {
	Store   store.ReportStore
	Cleanup CleanupFunc
	// Cached is set when the store is fronted by the report cache
	Cached *store.Cached
}

// Factory creates report stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// MongoDB specific
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Read cache; a zero size disables it
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MongoBackend  BackendType = "mongo"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MongoBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
