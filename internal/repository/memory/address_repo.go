package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"shop_service/internal/domain"
)

type addressRepo struct {
	base
}

func (r *addressRepo) CreateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	err := r.write(func(st *state) error {
		address.ID = st.nextID()
		st.addresses[address.ID] = *address
		return nil
	})
	if err != nil {
		return nil, err
	}
	created := *address
	return &created, nil
}

func (r *addressRepo) GetAddress(ctx context.Context, userID, id int) (*domain.Address, error) {
	var found domain.Address
	err := r.read(func(st *state) error {
		a, ok := st.addresses[id]
		if !ok || a.UserID != userID {
			return fmt.Errorf("address %d: %w", id, domain.ErrNotFound)
		}
		found = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *addressRepo) ListAddresses(ctx context.Context, userID int) ([]domain.Address, error) {
	addresses := []domain.Address{}
	err := r.read(func(st *state) error {
		for _, id := range slices.Sorted(maps.Keys(st.addresses)) {
			if a := st.addresses[id]; a.UserID == userID {
				addresses = append(addresses, a)
			}
		}
		return nil
	})
	return addresses, err
}

func (r *addressRepo) UpdateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	err := r.write(func(st *state) error {
		existing, ok := st.addresses[address.ID]
		if !ok || existing.UserID != address.UserID {
			return fmt.Errorf("address %d not found for update: %w", address.ID, domain.ErrNotFound)
		}
		st.addresses[address.ID] = *address
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated := *address
	return &updated, nil
}

func (r *addressRepo) DeleteAddress(ctx context.Context, userID, id int) error {
	return r.write(func(st *state) error {
		a, ok := st.addresses[id]
		if !ok || a.UserID != userID {
			return fmt.Errorf("address %d not found for deletion: %w", id, domain.ErrNotFound)
		}
		delete(st.addresses, id)
		return nil
	})
}

func (r *addressRepo) ClearDefault(ctx context.Context, userID int) error {
	return r.write(func(st *state) error {
		for id, a := range st.addresses {
			if a.UserID == userID && a.IsDefault {
				a.IsDefault = false
				st.addresses[id] = a
			}
		}
		return nil
	})
}
