package userinfra

import (
	"context"

	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/jmoiron/sqlx"
)

// PostgresStore is an open tenant database.
type PostgresStore struct {
	db    *sqlx.DB
	users *PostgresUserRepository
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, users: NewPostgresUserRepository(db)}
}

func (s *PostgresStore) Users() user.Repository         { return s.users }
func (s *PostgresStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *PostgresStore) Close() error                   { return s.db.Close() }

// MemoryStore is a tenant store held in memory.
type MemoryStore struct {
	users *MemoryUserRepository
}

func NewMemoryStore(seed ...*user.User) *MemoryStore {
	return &MemoryStore{users: NewMemoryUserRepository(seed...)}
}

func (s *MemoryStore) Users() user.Repository     { return s.users }
func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error               { return nil }
