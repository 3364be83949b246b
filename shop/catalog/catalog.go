// Package catalog defines the shop's domain types and the storage contract the
// menu engine and the admin wizards depend on.
package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalog.
type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Product is a purchasable item. Image holds a Telegram photo file id.
type Product struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Image       string          `db:"image"`
	CategoryID  int64           `db:"category_id"`
	Created     time.Time       `db:"created"`
	Updated     time.Time       `db:"updated"`
}

// ProductInput carries the fields written by AddProduct and UpdateProduct.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	CategoryID  int64
}

// CartLine is one product in a user's cart. Quantity is at least 1.
type CartLine struct {
	ID        int64   `db:"id"`
	UserID    int64   `db:"user_id"`
	ProductID int64   `db:"product_id"`
	Quantity  int     `db:"quantity"`
	Product   Product `db:"product"`
}

// LineTotal returns quantity times unit price.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Banner is the image and text shown for a menu page.
type Banner struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Image       string `db:"image"`
	Description string `db:"description"`
}

// User is a shop customer.
type User struct {
	UserID    int64   `db:"user_id"`
	FirstName string  `db:"first_name"`
	LastName  string  `db:"last_name"`
	Phone     *string `db:"phone"`
}

// Storage is the persistence contract. Lookups of absent rows return an error
// wrapping ErrNotFound; everything else that fails is a *StorageError.
type Storage interface {
	GetCategories(ctx context.Context) ([]Category, error)
	GetAllProducts(ctx context.Context, categoryID int64) ([]Product, error)
	GetProduct(ctx context.Context, productID int64) (Product, error)
	AddProduct(ctx context.Context, in ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, productID int64, in ProductInput) error
	DeleteProduct(ctx context.Context, productID int64) error

	GetBanner(ctx context.Context, name string) (Banner, error)
	GetInfoPages(ctx context.Context) ([]Banner, error)
	ChangeBannerImage(ctx context.Context, name, image string) error

	GetUserCarts(ctx context.Context, userID int64) ([]CartLine, error)
	AddToCart(ctx context.Context, userID, productID int64) error
	// ReduceProductInCart decrements the line and reports whether it still exists.
	ReduceProductInCart(ctx context.Context, userID, productID int64) (bool, error)
	DeleteFromCart(ctx context.Context, userID, productID int64) error

	AddUser(ctx context.Context, u User) error
}

// Seeder is implemented by stores that can insert reference data idempotently.
type Seeder interface {
	CreateCategories(ctx context.Context, names []string) error
	AddBanners(ctx context.Context, banners map[string]string) error
}

// DefaultCategories are inserted into an empty catalog.
var DefaultCategories = []string{"Food", "Drinks"}

// DefaultBanners maps info page names to their initial description.
var DefaultBanners = map[string]string{
	"main":     "Welcome to the shop!",
	"about":    "About us. Open daily, 9:00 to 21:00.",
	"payment":  "Payment: card in the bot, card or cash on delivery.",
	"shipping": "Shipping: courier, pick-up, or dine in.",
	"catalog":  "Categories:",
	"cart":     "Your cart is empty.",
}
