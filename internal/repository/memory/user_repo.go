package memory

import (
	"context"
	"fmt"
	"strings"

	"shop_service/internal/domain"
)

type userRepo struct {
	base
}

func (r *userRepo) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	err := r.write(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, user.Email) {
				return fmt.Errorf("user with email '%s': %w", user.Email, domain.ErrAlreadyExists)
			}
		}
		user.ID = st.nextID()
		user.CreatedAt = r.store.now()
		st.users[user.ID] = *user
		return nil
	})
	if err != nil {
		return nil, err
	}
	created := *user
	return &created, nil
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var found domain.User
	err := r.read(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				found = u
				return nil
			}
		}
		return fmt.Errorf("user with email %s: %w", email, domain.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id int) (*domain.User, error) {
	var found domain.User
	err := r.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user with id %d: %w", id, domain.ErrNotFound)
		}
		found = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}
