package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop_service/internal/domain"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, so every repository can run
// inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresStore struct {
	db  *sql.DB
	log *logrus.Logger
}

var _ domain.DataStore = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: logger}
}

func (s *PostgresStore) Products() domain.ProductRepository {
	return NewPostgresProductRepository(s.db, s.log)
}

func (s *PostgresStore) Categories() domain.CategoryRepository {
	return NewPostgresCategoryRepository(s.db, s.log)
}

func (s *PostgresStore) Carts() domain.CartRepository {
	return NewPostgresCartRepository(s.db, s.log)
}

func (s *PostgresStore) Addresses() domain.AddressRepository {
	return NewPostgresAddressRepository(s.db, s.log)
}

func (s *PostgresStore) Users() domain.UserRepository {
	return NewPostgresUserRepository(s.db, s.log)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Errorf("Repository: Failed to begin transaction: %v", err)
		return fmt.Errorf("could not start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			s.log.Error("Repository: Recovered from panic, rolling back transaction")
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			s.log.Debugf("Repository: Rolling back transaction due to error: %v", err)
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Errorf("Repository: Failed to rollback transaction: %v", rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			s.log.Errorf("Repository: Failed to commit transaction: %v", cErr)
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(ctx, &txStore{tx: tx, log: s.log})
}

type txStore struct {
	tx  *sql.Tx
	log *logrus.Logger
}

func (t *txStore) Products() domain.ProductRepository {
	return NewPostgresProductRepository(t.tx, t.log)
}

func (t *txStore) Categories() domain.CategoryRepository {
	return NewPostgresCategoryRepository(t.tx, t.log)
}

func (t *txStore) Carts() domain.CartRepository {
	return NewPostgresCartRepository(t.tx, t.log)
}

func (t *txStore) Addresses() domain.AddressRepository {
	return NewPostgresAddressRepository(t.tx, t.log)
}

func (t *txStore) Users() domain.UserRepository {
	return NewPostgresUserRepository(t.tx, t.log)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
