package chats

import (
	"fmt"
)

// NewStore creates a message store based on the configuration
func NewStore(config *StoreConfig) (Store, error) {
	switch config.Type {
	case "sqlite":
		return NewSQLiteStore(config)
	case "postgres":
		return NewPostgresStore(config)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}
