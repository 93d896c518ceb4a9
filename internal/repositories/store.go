package repositories

import (
	"context"

	"github.com/simfolio/backend/internal/db"
	"gorm.io/gorm"
)

// Store is the persistence gateway for simulations and their owned rows.
// A Store obtained inside InTx runs every call on that transaction.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store over the database connection
func NewStore(database *db.DB) *Store {
	return &Store{db: database.DB}
}

// InTx runs fn inside a transaction. Nested calls become savepoints.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
