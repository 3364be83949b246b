// Package postgres implements catalog.Storage on PostgreSQL through sqlx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/shopbot/shop/catalog"
)

// foreignKeyViolation is the SQLSTATE raised when a referenced row is missing.
const foreignKeyViolation = "23503"

// Store is a catalog.Storage backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var (
	_ catalog.Storage = (*Store)(nil)
	_ catalog.Seeder  = (*Store)(nil)
)

// New wraps db.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const productColumns = `id, name, description, price, image, category_id, created, updated`

func (s *Store) GetCategories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	err := s.db.SelectContext(ctx, &out, `SELECT id, name FROM categories ORDER BY id`)
	return out, catalog.Wrap("get categories", err)
}

func (s *Store) GetAllProducts(ctx context.Context, categoryID int64) ([]catalog.Product, error) {
	var out []catalog.Product
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+productColumns+` FROM products WHERE category_id = $1 ORDER BY id`, categoryID)
	return out, catalog.Wrap("get products", err)
}

func (s *Store) GetProduct(ctx context.Context, productID int64) (catalog.Product, error) {
	var p catalog.Product
	err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, catalog.NotFound("product", productID)
	}
	return p, catalog.Wrap("get product", err)
}

func (s *Store) AddProduct(ctx context.Context, in catalog.ProductInput) (catalog.Product, error) {
	p := catalog.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		CategoryID:  in.CategoryID,
	}
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO products (name, description, price, image, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created, updated`,
		in.Name, in.Description, in.Price, in.Image, in.CategoryID,
	).Scan(&p.ID, &p.Created, &p.Updated)
	if isForeignKey(err) {
		return catalog.Product{}, catalog.NotFound("category", in.CategoryID)
	}
	if err != nil {
		return catalog.Product{}, catalog.Wrap("add product", err)
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, productID int64, in catalog.ProductInput) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products
		SET name = $1, description = $2, price = $3, image = $4, category_id = $5, updated = now()
		WHERE id = $6`,
		in.Name, in.Description, in.Price, in.Image, in.CategoryID, productID,
	)
	if isForeignKey(err) {
		return catalog.NotFound("category", in.CategoryID)
	}
	return affected("update product", res, err, "product", productID)
}

func (s *Store) DeleteProduct(ctx context.Context, productID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	return catalog.Wrap("delete product", err)
}

func (s *Store) GetBanner(ctx context.Context, name string) (catalog.Banner, error) {
	var b catalog.Banner
	err := s.db.GetContext(ctx, &b, `SELECT id, name, image, description FROM banners WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Banner{}, catalog.NotFound("banner", name)
	}
	return b, catalog.Wrap("get banner", err)
}

func (s *Store) GetInfoPages(ctx context.Context) ([]catalog.Banner, error) {
	var out []catalog.Banner
	err := s.db.SelectContext(ctx, &out, `SELECT id, name, image, description FROM banners ORDER BY id`)
	return out, catalog.Wrap("get info pages", err)
}

func (s *Store) ChangeBannerImage(ctx context.Context, name, image string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE banners SET image = $1, updated = now() WHERE name = $2`, image, name)
	return affected("change banner image", res, err, "banner", name)
}

const cartQuery = `SELECT c.id, c.user_id, c.product_id, c.quantity,
	p.id AS "product.id", p.name AS "product.name", p.description AS "product.description",
	p.price AS "product.price", p.image AS "product.image", p.category_id AS "product.category_id",
	p.created AS "product.created", p.updated AS "product.updated"
FROM carts c
JOIN products p ON p.id = c.product_id
WHERE c.user_id = $1
ORDER BY c.id`

// GetUserCarts returns the user's lines in creation order with products attached.
func (s *Store) GetUserCarts(ctx context.Context, userID int64) ([]catalog.CartLine, error) {
	var out []catalog.CartLine
	err := s.db.SelectContext(ctx, &out, cartQuery, userID)
	return out, catalog.Wrap("get user carts", err)
}

func (s *Store) AddToCart(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO carts (user_id, product_id, quantity) VALUES ($1, $2, 1)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = carts.quantity + 1, updated = now()`,
		userID, productID,
	)
	if isForeignKey(err) {
		return catalog.NotFound("product", productID)
	}
	return catalog.Wrap("add to cart", err)
}

// ReduceProductInCart decrements a line with quantity above one and deletes it
// otherwise, in one transaction.
func (s *Store) ReduceProductInCart(ctx context.Context, userID, productID int64) (bool, error) {
	const op = "reduce product in cart"
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, catalog.Wrap(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var qty int
	err = tx.QueryRowxContext(ctx,
		`UPDATE carts SET quantity = quantity - 1, updated = now()
		WHERE user_id = $1 AND product_id = $2 AND quantity > 1
		RETURNING quantity`,
		userID, productID,
	).Scan(&qty)
	still := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		still = false
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM carts WHERE user_id = $1 AND product_id = $2`, userID, productID); err != nil {
			return false, catalog.Wrap(op, err)
		}
	case err != nil:
		return false, catalog.Wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return false, catalog.Wrap(op, err)
	}
	return still, nil
}

func (s *Store) DeleteFromCart(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM carts WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return catalog.Wrap("delete from cart", err)
}

// AddUser inserts u unless the user already exists.
func (s *Store) AddUser(ctx context.Context, u catalog.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, first_name, last_name, phone) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`,
		u.UserID, u.FirstName, u.LastName, u.Phone,
	)
	return catalog.Wrap("add user", err)
}

// CreateCategories inserts names when the table is empty.
func (s *Store) CreateCategories(ctx context.Context, names []string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name)
		SELECT unnest($1::text[])
		WHERE NOT EXISTS (SELECT 1 FROM categories)`,
		pq.Array(names),
	)
	return catalog.Wrap("create categories", err)
}

// AddBanners inserts banners, ordered by name, when the table is empty.
func (s *Store) AddBanners(ctx context.Context, banners map[string]string) error {
	names := make([]string, 0, len(banners))
	for name := range banners {
		names = append(names, name)
	}
	sort.Strings(names)
	descriptions := make([]string, len(names))
	for i, name := range names {
		descriptions[i] = banners[name]
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO banners (name, description)
		SELECT * FROM unnest($1::text[], $2::text[])
		WHERE NOT EXISTS (SELECT 1 FROM banners)`,
		pq.Array(names), pq.Array(descriptions),
	)
	return catalog.Wrap("add banners", err)
}

func isForeignKey(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

func affected(op string, res sql.Result, err error, entity string, key any) error {
	if err != nil {
		return catalog.Wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return catalog.Wrap(op, err)
	}
	if n == 0 {
		return catalog.NotFound(entity, key)
	}
	return nil
}
