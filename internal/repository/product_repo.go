package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shop_service/internal/domain"

	"github.com/sirupsen/logrus"
)

const productColumns = `id, name, description, brand, image, category_id, price, discount,
        price_after_discount, stock, specifications, created_at`

type postgresProductRepository struct {
	db  dbtx
	log *logrus.Logger
}

func NewPostgresProductRepository(db dbtx, logger *logrus.Logger) domain.ProductRepository {
	return &postgresProductRepository{
		db:  db,
		log: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var categoryID sql.NullInt64
	var specs []byte
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Brand,
		&product.Image,
		&categoryID,
		&product.Price,
		&product.Discount,
		&product.PriceAfterDiscount,
		&product.Stock,
		&specs,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		product.CategoryID = int(categoryID.Int64)
	}
	product.Specifications = map[string]any{}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &product.Specifications); err != nil {
			return nil, fmt.Errorf("could not decode specifications of product %d: %w", product.ID, err)
		}
	}
	return product, nil
}

func nullCategory(id int) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}

func encodeSpecs(specs map[string]any) ([]byte, error) {
	if specs == nil {
		specs = map[string]any{}
	}
	return json.Marshal(specs)
}

func (r *postgresProductRepository) translateWriteError(err error, product string, categoryID int) error {
	switch pqCode(err) {
	case pqForeignKeyViolation:
		r.log.Warnf("Repository: Product '%s' references non-existent category ID: %d", product, categoryID)
		return fmt.Errorf("category with id %d does not exist: %w", categoryID, domain.ErrInvalidArgument)
	case pqCheckViolation:
		r.log.Warnf("Repository: Check constraint violation for product '%s': %v", product, err)
		return fmt.Errorf("product data constraint violation: %w", domain.ErrInvalidArgument)
	}
	return nil
}

func (r *postgresProductRepository) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
        INSERT INTO products (name, description, brand, image, category_id, price, discount,
                              price_after_discount, stock, specifications)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at`

	specs, err := encodeSpecs(product.Specifications)
	if err != nil {
		return nil, fmt.Errorf("could not encode specifications: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		product.Name,
		product.Description,
		product.Brand,
		product.Image,
		nullCategory(product.CategoryID),
		product.Price,
		product.Discount,
		product.PriceAfterDiscount,
		product.Stock,
		specs,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		if mapped := r.translateWriteError(err, product.Name, product.CategoryID); mapped != nil {
			return nil, mapped
		}
		r.log.Errorf("Repository: Failed to create product '%s': %v", product.Name, err)
		return nil, fmt.Errorf("could not create product: %w", err)
	}
	r.log.Infof("Repository: Product created successfully with ID: %d, Name: %s", product.ID, product.Name)
	return product, nil
}

func (r *postgresProductRepository) getProduct(ctx context.Context, id int, lock bool) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with ID %d not found", id)
			return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get product by ID %d: %v", id, err)
		return nil, fmt.Errorf("could not get product by id: %w", err)
	}
	return product, nil
}

func (r *postgresProductRepository) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	return r.getProduct(ctx, id, false)
}

func (r *postgresProductRepository) GetProductForUpdate(ctx context.Context, id int) (*domain.Product, error) {
	return r.getProduct(ctx, id, true)
}

func (r *postgresProductRepository) UpdateProduct(ctx context.Context, id int, update domain.ProductUpdate) (*domain.Product, error) {
	if update.Empty() {
		r.log.Infof("Repository: No fields provided for product update ID %d. Returning current product.", id)
		return r.GetProductByID(ctx, id)
	}

	args := []any{}
	setClauses := []string{}
	set := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		set("name", *update.Name)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.Brand != nil {
		set("brand", *update.Brand)
	}
	if update.Image != nil {
		set("image", *update.Image)
	}
	if update.CategoryID != nil {
		set("category_id", nullCategory(*update.CategoryID))
	}
	if update.Price != nil {
		set("price", *update.Price)
	}
	switch {
	case update.ClearDiscount:
		set("discount", nil)
	case update.Discount != nil:
		set("discount", *update.Discount)
	}
	if update.PriceAfterDiscount != nil {
		set("price_after_discount", *update.PriceAfterDiscount)
	}
	if update.Stock != nil {
		set("stock", *update.Stock)
	}
	if update.Specifications != nil {
		specs, err := encodeSpecs(update.Specifications)
		if err != nil {
			return nil, fmt.Errorf("could not encode specifications: %w", err)
		}
		set("specifications", specs)
	}

	args = append(args, id)
	query := "UPDATE products SET " + strings.Join(setClauses, ", ") +
		fmt.Sprintf(" WHERE id = $%d RETURNING ", len(args)) + productColumns

	r.log.Debugf("Repository: Executing partial update query for ID %d: %s", id, query)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with ID %d not found for update", id)
			return nil, fmt.Errorf("product with id %d not found for update: %w", id, domain.ErrNotFound)
		}
		categoryID := 0
		if update.CategoryID != nil {
			categoryID = *update.CategoryID
		}
		if mapped := r.translateWriteError(err, fmt.Sprint(id), categoryID); mapped != nil {
			return nil, mapped
		}
		r.log.Errorf("Repository: Failed to execute partial update for product ID %d: %v", id, err)
		return nil, fmt.Errorf("could not partially update product: %w", err)
	}

	r.log.Infof("Repository: Partial update successful for product ID %d", id)
	return product, nil
}

func (r *postgresProductRepository) AdjustStock(ctx context.Context, id int, delta int) (int, error) {
	query := `
        UPDATE products
        SET stock = stock + $1
        WHERE id = $2 AND stock + $1 >= 0
        RETURNING stock`

	var stock int
	err := r.db.QueryRowContext(ctx, query, delta, id).Scan(&stock)
	if err == nil {
		r.log.Debugf("Repository: Stock of product %d adjusted by %d to %d", id, delta, stock)
		return stock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.log.Errorf("Repository: Failed to adjust stock of product %d by %d: %v", id, delta, err)
		return 0, fmt.Errorf("could not adjust stock: %w", err)
	}

	// no row matched: either the product is gone or the guard rejected it
	current, getErr := r.GetProductByID(ctx, id)
	if getErr != nil {
		return 0, getErr
	}
	r.log.Warnf("Repository: Stock adjustment %d rejected for product %d (stock %d)", delta, id, current.Stock)
	return 0, fmt.Errorf("product %d has %d in stock, adjustment %d: %w", id, current.Stock, delta, domain.ErrInsufficientStock)
}

func (r *postgresProductRepository) DeleteProduct(ctx context.Context, id int) error {
	query := `DELETE FROM products WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete product ID %d: %v", id, err)
		return fmt.Errorf("could not delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Repository: Failed to get rows affected after deleting product ID %d: %v", id, err)
		return fmt.Errorf("could not confirm product deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent product ID %d", id)
		return fmt.Errorf("product with id %d not found for deletion: %w", id, domain.ErrNotFound)
	}
	r.log.Infof("Repository: Product deleted successfully with ID: %d", id)
	return nil
}

func (r *postgresProductRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	filter.Normalize()

	args := []any{}
	where := []string{}
	cond := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.CategoryID != 0 {
		cond("category_id = $%d", filter.CategoryID)
	}
	if filter.Brand != "" {
		cond("brand = $%d", filter.Brand)
	}
	if filter.MinPrice != nil {
		cond("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		cond("price <= $%d", *filter.MaxPrice)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY id ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Errorf("Repository: Failed to list products with filter %+v: %v", filter, err)
		return nil, fmt.Errorf("could not list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.log.Errorf("Repository: Failed to scan product row: %v", err)
			return nil, fmt.Errorf("error scanning product data: %w", err)
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during products list iteration: %v", err)
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	r.log.Infof("Repository: Retrieved %d products (limit: %d, offset: %d)", len(products), filter.Limit, filter.Offset)
	return products, nil
}

func (r *postgresProductRepository) ListBrands(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT brand FROM products WHERE brand <> '' ORDER BY brand`)
	if err != nil {
		r.log.Errorf("Repository: Failed to list brands: %v", err)
		return nil, fmt.Errorf("could not list brands: %w", err)
	}
	defer rows.Close()

	brands := []string{}
	for rows.Next() {
		var brand string
		if err := rows.Scan(&brand); err != nil {
			return nil, fmt.Errorf("error scanning brand: %w", err)
		}
		brands = append(brands, brand)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}
	return brands, nil
}
