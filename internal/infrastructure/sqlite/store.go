package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-pos/internal/application"
)

// Store implements application.UnitOfWork on top of a SQLite database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func bind(q querier) application.Stores {
	return application.Stores{
		Products:  &ProductRepository{q: q},
		Orders:    &OrderRepository{q: q},
		Inventory: &InventoryRepository{q: q},
	}
}

// Stores returns repositories that auto-commit each statement.
func (s *Store) Stores() application.Stores { return bind(s.db) }

// Do runs fn inside one transaction, committing only when fn returns nil.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx application.Stores) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("sqlite: rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(ctx, bind(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
