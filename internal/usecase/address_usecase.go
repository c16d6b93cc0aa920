package usecase

import (
	"context"
	"fmt"
	"strings"

	"shop_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type AddressUseCase interface {
	CreateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error)
	GetAddress(ctx context.Context, userID, id int) (*domain.Address, error)
	ListAddresses(ctx context.Context, userID int) ([]domain.Address, error)
	UpdateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, id int) error
	SetDefault(ctx context.Context, userID, id int) (*domain.Address, error)
}

type addressUseCase struct {
	store domain.DataStore
	log   *logrus.Logger
}

func NewAddressUseCase(store domain.DataStore, logger *logrus.Logger) AddressUseCase {
	return &addressUseCase{
		store: store,
		log:   logger,
	}
}

func normalizeAddress(a *domain.Address) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"first_name", &a.FirstName},
		{"last_name", &a.LastName},
		{"phone", &a.Phone},
		{"address", &a.Address},
		{"city", &a.City},
		{"state", &a.State},
		{"zip_code", &a.ZipCode},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return invalid("address field %s is required", f.name)
		}
	}
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = domain.DefaultCountry
	}
	return nil
}

// CreateAddress stores the address as given; is_default is not reconciled
// with the user's other addresses, SetDefault does that.
func (uc *addressUseCase) CreateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	if address.UserID <= 0 {
		return nil, invalid("invalid user ID")
	}
	if err := normalizeAddress(address); err != nil {
		uc.log.Warnf("Use Case: Rejected address for user %d: %v", address.UserID, err)
		return nil, err
	}

	created, err := uc.store.Addresses().CreateAddress(ctx, address)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create address for user %d: %v", address.UserID, err)
		return nil, err
	}
	uc.log.Infof("Use Case: Address %d created for user %d", created.ID, created.UserID)
	return created, nil
}

func (uc *addressUseCase) GetAddress(ctx context.Context, userID, id int) (*domain.Address, error) {
	if id <= 0 {
		return nil, fmt.Errorf("address %d: %w", id, domain.ErrNotFound)
	}
	return uc.store.Addresses().GetAddress(ctx, userID, id)
}

func (uc *addressUseCase) ListAddresses(ctx context.Context, userID int) ([]domain.Address, error) {
	addresses, err := uc.store.Addresses().ListAddresses(ctx, userID)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list addresses for user %d: %v", userID, err)
		return nil, fmt.Errorf("could not retrieve addresses: %w", err)
	}
	return addresses, nil
}

func (uc *addressUseCase) UpdateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	if address.ID <= 0 {
		return nil, fmt.Errorf("address %d: %w", address.ID, domain.ErrNotFound)
	}
	if err := normalizeAddress(address); err != nil {
		uc.log.Warnf("Use Case: Rejected update of address %d: %v", address.ID, err)
		return nil, err
	}

	updated, err := uc.store.Addresses().UpdateAddress(ctx, address)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to update address %d for user %d: %v", address.ID, address.UserID, err)
		return nil, err
	}
	uc.log.Infof("Use Case: Address %d updated for user %d", updated.ID, updated.UserID)
	return updated, nil
}

func (uc *addressUseCase) DeleteAddress(ctx context.Context, userID, id int) error {
	if id <= 0 {
		return fmt.Errorf("address %d: %w", id, domain.ErrNotFound)
	}
	if err := uc.store.Addresses().DeleteAddress(ctx, userID, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete address %d for user %d: %v", id, userID, err)
		return err
	}
	uc.log.Infof("Use Case: Address %d deleted for user %d", id, userID)
	return nil
}

// SetDefault makes id the user's only default address.
func (uc *addressUseCase) SetDefault(ctx context.Context, userID, id int) (*domain.Address, error) {
	if id <= 0 {
		return nil, fmt.Errorf("address %d: %w", id, domain.ErrNotFound)
	}

	var address *domain.Address
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.Addresses().GetAddress(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Addresses().ClearDefault(ctx, userID); err != nil {
			return err
		}
		current.IsDefault = true
		address, err = tx.Addresses().UpdateAddress(ctx, current)
		return err
	})
	if err != nil {
		uc.log.Warnf("Use Case: Failed to set address %d as default for user %d: %v", id, userID, err)
		return nil, err
	}
	uc.log.Infof("Use Case: Address %d is now the default for user %d", id, userID)
	return address, nil
}
