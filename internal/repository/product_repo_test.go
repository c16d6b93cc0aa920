package repository

import (
	"context"
	"testing"

	"shop_service/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustStockReturnsNewStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProductRepository(db, quietLogger())

	mock.ExpectQuery(q(guardedStock)).WithArgs(-3, 7).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(int64(2)))

	stock, err := repo.AdjustStock(context.Background(), 7, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStockGuardRejectionIsInsufficientStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProductRepository(db, quietLogger())

	mock.ExpectQuery(q(guardedStock)).WithArgs(-3, 7).WillReturnRows(sqlmock.NewRows([]string{"stock"}))
	mock.ExpectQuery(q("FROM products WHERE id = $1")).WithArgs(7).WillReturnRows(productRow(7, 2))

	_, err := repo.AdjustStock(context.Background(), 7, -3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustStockMissingProductIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProductRepository(db, quietLogger())

	mock.ExpectQuery(q(guardedStock)).WithArgs(-3, 7).WillReturnRows(sqlmock.NewRows([]string{"stock"}))
	mock.ExpectQuery(q("FROM products WHERE id = $1")).WithArgs(7).WillReturnRows(sqlmock.NewRows(productCols))

	_, err := repo.AdjustStock(context.Background(), 7, -3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductScansNullableColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProductRepository(db, quietLogger())

	mock.ExpectQuery(q("FROM products WHERE id = $1")).WithArgs(9).WillReturnRows(
		sqlmock.NewRows(productCols).
			AddRow(int64(9), "Cable", "", "", "", int64(4), "9.99", nil, "9.99", int64(1), []byte(`{"length":"2m"}`), createdAt))

	p, err := repo.GetProductByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 4, p.CategoryID)
	assert.False(t, p.Discount.Valid)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, "2m", p.Specifications["length"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProductMapsForeignKeyViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProductRepository(db, quietLogger())

	mock.ExpectQuery(q("INSERT INTO products")).WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	_, err := repo.CreateProduct(context.Background(), &domain.Product{Name: "P", CategoryID: 99, Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItemMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCartRepository(db, quietLogger())

	mock.ExpectQuery(q(insertItem)).WillReturnError(&pq.Error{Code: pqUniqueViolation})

	_, err := repo.CreateItem(context.Background(), &domain.CartItem{CartID: 1, ProductID: 2, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
