package domain

import "context"

// Store exposes repositories that share one connection or transaction.
type Store interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Carts() CartRepository
	Addresses() AddressRepository
	Users() UserRepository
}

// TxManager runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise; repositories obtained from tx must not
// be used after fn returns.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// DataStore is a Store that can also open transactions.
type DataStore interface {
	Store
	TxManager
}
