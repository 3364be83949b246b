package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/shop/catalog"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(sqlx.NewDb(db, "postgres")), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var productCols = []string{"id", "name", "description", "price", "image", "category_id", "created", "updated"}

func TestGetAllProducts(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(q(`FROM products WHERE category_id = $1 ORDER BY id`)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(int64(1), "Tea", "Black", "3.50", "file-1", int64(2), now, now).
			AddRow(int64(4), "Cake", "Sweet", "4.25", "file-4", int64(2), now, now))

	got, err := s.GetAllProducts(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Tea", got[0].Name)
	assert.True(t, decimal.RequireFromString("4.25").Equal(got[1].Price))
}

func TestGetProductNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q(`FROM products WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err := s.GetProduct(context.Background(), 9)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAddProduct(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(q(`INSERT INTO products (name, description, price, image, category_id)`)).
		WithArgs("Tea", "Black", sqlmock.AnyArg(), "file-1", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created", "updated"}).AddRow(int64(12), now, now))

	p, err := s.AddProduct(context.Background(), catalog.ProductInput{
		Name: "Tea", Description: "Black", Price: decimal.RequireFromString("3.5"), Image: "file-1", CategoryID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.ID)
	assert.Equal(t, "Tea", p.Name)
}

func TestUpdateProductMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q(`UPDATE products`)).
		WithArgs("Tea", "Black", sqlmock.AnyArg(), "file-1", int64(2), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateProduct(context.Background(), 7, catalog.ProductInput{
		Name: "Tea", Description: "Black", Price: decimal.NewFromInt(3), Image: "file-1", CategoryID: 2,
	})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetUserCarts(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()
	cols := []string{
		"id", "user_id", "product_id", "quantity",
		"product.id", "product.name", "product.description", "product.price",
		"product.image", "product.category_id", "product.created", "product.updated",
	}
	mock.ExpectQuery(q(`FROM carts c`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), int64(42), int64(3), 2, int64(3), "Tea", "Black", "3.50", "file-3", int64(1), now, now))

	lines, err := s.GetUserCarts(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "Tea", lines[0].Product.Name)
	assert.Equal(t, "7.00", lines[0].LineTotal().StringFixed(2))
}

func TestAddToCart(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(q(`ON CONFLICT (user_id, product_id)`)).
		WithArgs(int64(42), int64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.AddToCart(context.Background(), 42, 3))

	mock.ExpectExec(q(`INSERT INTO carts`)).
		WithArgs(int64(42), int64(99)).
		WillReturnError(&pq.Error{Code: "23503"})
	require.ErrorIs(t, s.AddToCart(context.Background(), 42, 99), catalog.ErrNotFound)
}

func TestReduceProductInCart(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(q(`UPDATE carts SET quantity = quantity - 1`)).
		WithArgs(int64(42), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))
	mock.ExpectCommit()
	still, err := s.ReduceProductInCart(ctx, 42, 3)
	require.NoError(t, err)
	assert.True(t, still)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`UPDATE carts SET quantity = quantity - 1`)).
		WithArgs(int64(42), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))
	mock.ExpectExec(q(`DELETE FROM carts WHERE user_id = $1 AND product_id = $2`)).
		WithArgs(int64(42), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	still, err = s.ReduceProductInCart(ctx, 42, 3)
	require.NoError(t, err)
	assert.False(t, still)

	mock.ExpectBegin()
	mock.ExpectQuery(q(`UPDATE carts`)).WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()
	_, err = s.ReduceProductInCart(ctx, 42, 3)
	var se *catalog.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "reduce product in cart", se.Op)
}

func TestBannerQueries(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(q(`FROM banners WHERE name = $1`)).
		WithArgs("about").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "image", "description"}))
	_, err := s.GetBanner(ctx, "about")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	mock.ExpectExec(q(`UPDATE banners SET image = $1`)).
		WithArgs("file-b", "main").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.ChangeBannerImage(ctx, "main", "file-b"))
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(q(`SELECT id, name FROM categories`)).WillReturnError(errors.New("connection refused"))

	_, err := s.GetCategories(context.Background())
	var se *catalog.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "STORAGE", se.Code())
}

func TestSeeders(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(q(`INSERT INTO categories (name)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, s.CreateCategories(ctx, catalog.DefaultCategories))

	mock.ExpectExec(q(`INSERT INTO banners (name, description)`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 6))
	require.NoError(t, s.AddBanners(ctx, catalog.DefaultBanners))

	mock.ExpectExec(q(`INSERT INTO users (user_id, first_name, last_name, phone)`)).
		WithArgs(int64(42), "Ann", "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.AddUser(ctx, catalog.User{UserID: 42, FirstName: "Ann"}))
}
