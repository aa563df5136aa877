package chats

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresStore implements Store for PostgreSQL databases
type PostgresStore struct {
	gormStore
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(config *StoreConfig) (*PostgresStore, error) {
	if config.Type != "postgres" {
		return nil, fmt.Errorf("invalid store type for PostgreSQL store: %s", config.Type)
	}

	store := &PostgresStore{dsn: config.Connection}
	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}
	return store, nil
}

// NewPostgresStoreSimple creates a new PostgreSQL store from a DSN
func NewPostgresStoreSimple(dsn string) (*PostgresStore, error) {
	return NewPostgresStore(NewStoreConfig("postgres", dsn))
}

// NewPostgresStoreDefault creates a PostgreSQL store from connection parameters
func NewPostgresStoreDefault(host, user, password, dbname string, port int) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)
	return NewPostgresStoreSimple(dsn)
}

// Connect establishes a connection to the PostgreSQL database
func (s *PostgresStore) Connect() error {
	db, err := gorm.Open(postgres.Open(s.dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}
	s.db = db
	return s.migrate()
}
