// Package memory keeps every record in process memory. Transactions take a
// single writer lock and work on a copy of the data that replaces the
// original only on commit.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"shop_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type state struct {
	seq        int
	products   map[int]domain.Product
	categories map[int]domain.Category
	carts      map[int]domain.Cart
	cartByUser map[int]int
	items      map[int]domain.CartItem
	addresses  map[int]domain.Address
	users      map[int]domain.User
}

func newState() *state {
	return &state{
		products:   map[int]domain.Product{},
		categories: map[int]domain.Category{},
		carts:      map[int]domain.Cart{},
		cartByUser: map[int]int{},
		items:      map[int]domain.CartItem{},
		addresses:  map[int]domain.Address{},
		users:      map[int]domain.User{},
	}
}

func (s *state) clone() *state {
	return &state{
		seq:        s.seq,
		products:   maps.Clone(s.products),
		categories: maps.Clone(s.categories),
		carts:      maps.Clone(s.carts),
		cartByUser: maps.Clone(s.cartByUser),
		items:      maps.Clone(s.items),
		addresses:  maps.Clone(s.addresses),
		users:      maps.Clone(s.users),
	}
}

func (s *state) nextID() int {
	s.seq++
	return s.seq
}

type Store struct {
	mu   sync.Mutex
	data *state
	log  *logrus.Logger
	now  func() time.Time
}

var _ domain.DataStore = (*Store)(nil)

func NewStore(logger *logrus.Logger) *Store {
	return &Store{
		data: newState(),
		log:  logger,
		now:  time.Now,
	}
}

func (s *Store) Products() domain.ProductRepository    { return &productRepo{base{store: s}} }
func (s *Store) Categories() domain.CategoryRepository { return &categoryRepo{base{store: s}} }
func (s *Store) Carts() domain.CartRepository          { return &cartRepo{base{store: s}} }
func (s *Store) Addresses() domain.AddressRepository   { return &addressRepo{base{store: s}} }
func (s *Store) Users() domain.UserRepository          { return &userRepo{base{store: s}} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	tx := &txStore{base: base{store: s, tx: work}}
	if err := fn(ctx, tx); err != nil {
		s.log.Debugf("Repository: Rolling back in-memory transaction: %v", err)
		return err
	}
	s.data = work
	return nil
}

type txStore struct {
	base base
}

func (t *txStore) Products() domain.ProductRepository    { return &productRepo{t.base} }
func (t *txStore) Categories() domain.CategoryRepository { return &categoryRepo{t.base} }
func (t *txStore) Carts() domain.CartRepository          { return &cartRepo{t.base} }
func (t *txStore) Addresses() domain.AddressRepository   { return &addressRepo{t.base} }
func (t *txStore) Users() domain.UserRepository          { return &userRepo{t.base} }

// base runs a repository call against the transaction's working copy, or
// against the live data under the store lock when there is no transaction.
type base struct {
	store *Store
	tx    *state
}

func (b base) read(fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return fn(b.store.data)
}

func (b base) write(fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	// a failed single call must not leave half its writes behind
	work := b.store.data.clone()
	if err := fn(work); err != nil {
		return err
	}
	b.store.data = work
	return nil
}
