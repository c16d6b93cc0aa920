package domain

import "context"

const DefaultCountry = "United States"

type Address struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
}

// All lookups are scoped by owner; another user's address is reported as
// ErrNotFound.
type AddressRepository interface {
	CreateAddress(ctx context.Context, address *Address) (*Address, error)
	GetAddress(ctx context.Context, userID, id int) (*Address, error)
	ListAddresses(ctx context.Context, userID int) ([]Address, error)
	UpdateAddress(ctx context.Context, address *Address) (*Address, error)
	DeleteAddress(ctx context.Context, userID, id int) error
	ClearDefault(ctx context.Context, userID int) error
}
