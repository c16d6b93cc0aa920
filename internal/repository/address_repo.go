package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop_service/internal/domain"

	"github.com/sirupsen/logrus"
)

const addressColumns = `id, user_id, first_name, last_name, phone, address, city, state,
        zip_code, country, is_default`

type postgresAddressRepository struct {
	db  dbtx
	log *logrus.Logger
}

func NewPostgresAddressRepository(db dbtx, logger *logrus.Logger) domain.AddressRepository {
	return &postgresAddressRepository{
		db:  db,
		log: logger,
	}
}

func scanAddress(row rowScanner) (*domain.Address, error) {
	a := &domain.Address{}
	err := row.Scan(&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Phone, &a.Address,
		&a.City, &a.State, &a.ZipCode, &a.Country, &a.IsDefault)
	return a, err
}

func (r *postgresAddressRepository) CreateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	query := `
        INSERT INTO addresses (user_id, first_name, last_name, phone, address, city, state,
                               zip_code, country, is_default)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		address.UserID,
		address.FirstName,
		address.LastName,
		address.Phone,
		address.Address,
		address.City,
		address.State,
		address.ZipCode,
		address.Country,
		address.IsDefault,
	).Scan(&address.ID)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return nil, fmt.Errorf("user %d: %w", address.UserID, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to create address for user %d: %v", address.UserID, err)
		return nil, fmt.Errorf("could not create address: %w", err)
	}
	r.log.Infof("Repository: Address %d created for user %d", address.ID, address.UserID)
	return address, nil
}

func (r *postgresAddressRepository) GetAddress(ctx context.Context, userID, id int) (*domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`
	address, err := scanAddress(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("address %d: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get address %d of user %d: %v", id, userID, err)
		return nil, fmt.Errorf("could not get address: %w", err)
	}
	return address, nil
}

func (r *postgresAddressRepository) ListAddresses(ctx context.Context, userID int) ([]domain.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.log.Errorf("Repository: Failed to list addresses of user %d: %v", userID, err)
		return nil, fmt.Errorf("could not list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning address: %w", err)
		}
		addresses = append(addresses, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}
	return addresses, nil
}

func (r *postgresAddressRepository) UpdateAddress(ctx context.Context, address *domain.Address) (*domain.Address, error) {
	query := `
        UPDATE addresses
        SET first_name = $1, last_name = $2, phone = $3, address = $4, city = $5,
            state = $6, zip_code = $7, country = $8, is_default = $9
        WHERE id = $10 AND user_id = $11`
	result, err := r.db.ExecContext(ctx, query,
		address.FirstName,
		address.LastName,
		address.Phone,
		address.Address,
		address.City,
		address.State,
		address.ZipCode,
		address.Country,
		address.IsDefault,
		address.ID,
		address.UserID,
	)
	if err != nil {
		r.log.Errorf("Repository: Failed to update address %d: %v", address.ID, err)
		return nil, fmt.Errorf("could not update address: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not confirm address update: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("address %d not found for update: %w", address.ID, domain.ErrNotFound)
	}
	return address, nil
}

func (r *postgresAddressRepository) DeleteAddress(ctx context.Context, userID, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete address %d: %v", id, err)
		return fmt.Errorf("could not delete address: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm address deletion: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("address %d not found for deletion: %w", id, domain.ErrNotFound)
	}
	r.log.Infof("Repository: Address %d deleted for user %d", id, userID)
	return nil
}

func (r *postgresAddressRepository) ClearDefault(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		r.log.Errorf("Repository: Failed to clear default address of user %d: %v", userID, err)
		return fmt.Errorf("could not clear default address: %w", err)
	}
	return nil
}
