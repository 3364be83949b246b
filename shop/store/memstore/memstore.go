// Package memstore is an in-process catalog.Storage used by tests and by the
// memory storage driver.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/shopbot/shop/catalog"
)

// Store keeps all shop data in maps guarded by one mutex.
type Store struct {
	mu sync.RWMutex

	nextID     int64
	categories map[int64]catalog.Category
	products   map[int64]catalog.Product
	banners    map[string]catalog.Banner
	carts      []catalog.CartLine
	users      map[int64]catalog.User

	now func() time.Time
	// Fail, when set, is returned by every operation. Tests use it to simulate outages.
	Fail error
}

var (
	_ catalog.Storage = (*Store)(nil)
	_ catalog.Seeder  = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		categories: make(map[int64]catalog.Category),
		products:   make(map[int64]catalog.Product),
		banners:    make(map[string]catalog.Banner),
		users:      make(map[int64]catalog.User),
		now:        time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) fail(op string) error {
	if s.Fail != nil {
		return &catalog.StorageError{Op: op, Err: s.Fail}
	}
	return nil
}

// CreateCategories inserts names when no category exists yet.
func (s *Store) CreateCategories(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("create categories"); err != nil {
		return err
	}
	if len(s.categories) > 0 {
		return nil
	}
	for _, n := range names {
		id := s.id()
		s.categories[id] = catalog.Category{ID: id, Name: n}
	}
	return nil
}

// AddBanners inserts banners when none exist yet.
func (s *Store) AddBanners(_ context.Context, banners map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("add banners"); err != nil {
		return err
	}
	if len(s.banners) > 0 {
		return nil
	}
	names := make([]string, 0, len(banners))
	for name := range banners {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.banners[name] = catalog.Banner{ID: s.id(), Name: name, Description: banners[name]}
	}
	return nil
}

func (s *Store) GetCategories(_ context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get categories"); err != nil {
		return nil, err
	}
	out := make([]catalog.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetAllProducts(_ context.Context, categoryID int64) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get products"); err != nil {
		return nil, err
	}
	var out []catalog.Product
	for _, p := range s.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, productID int64) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get product"); err != nil {
		return catalog.Product{}, err
	}
	p, ok := s.products[productID]
	if !ok {
		return catalog.Product{}, catalog.NotFound("product", productID)
	}
	return p, nil
}

func (s *Store) AddProduct(_ context.Context, in catalog.ProductInput) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("add product"); err != nil {
		return catalog.Product{}, err
	}
	now := s.now()
	p := catalog.Product{
		ID:          s.id(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		CategoryID:  in.CategoryID,
		Created:     now,
		Updated:     now,
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, productID int64, in catalog.ProductInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("update product"); err != nil {
		return err
	}
	p, ok := s.products[productID]
	if !ok {
		return catalog.NotFound("product", productID)
	}
	p.Name, p.Description, p.Price, p.Image, p.CategoryID = in.Name, in.Description, in.Price, in.Image, in.CategoryID
	p.Updated = s.now()
	s.products[productID] = p
	return nil
}

// DeleteProduct removes the product and every cart line that references it.
func (s *Store) DeleteProduct(_ context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("delete product"); err != nil {
		return err
	}
	delete(s.products, productID)
	kept := s.carts[:0]
	for _, l := range s.carts {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	s.carts = kept
	return nil
}

func (s *Store) GetBanner(_ context.Context, name string) (catalog.Banner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get banner"); err != nil {
		return catalog.Banner{}, err
	}
	b, ok := s.banners[name]
	if !ok {
		return catalog.Banner{}, catalog.NotFound("banner", name)
	}
	return b, nil
}

func (s *Store) GetInfoPages(_ context.Context) ([]catalog.Banner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get info pages"); err != nil {
		return nil, err
	}
	out := make([]catalog.Banner, 0, len(s.banners))
	for _, b := range s.banners {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ChangeBannerImage(_ context.Context, name, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("change banner image"); err != nil {
		return err
	}
	b, ok := s.banners[name]
	if !ok {
		return catalog.NotFound("banner", name)
	}
	b.Image = image
	s.banners[name] = b
	return nil
}

// GetUserCarts returns the user's lines in creation order with products attached.
func (s *Store) GetUserCarts(_ context.Context, userID int64) ([]catalog.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get user carts"); err != nil {
		return nil, err
	}
	var out []catalog.CartLine
	for _, l := range s.carts {
		if l.UserID != userID {
			continue
		}
		l.Product = s.products[l.ProductID]
		out = append(out, l)
	}
	return out, nil
}

func (s *Store) findLine(userID, productID int64) int {
	for i, l := range s.carts {
		if l.UserID == userID && l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) AddToCart(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("add to cart"); err != nil {
		return err
	}
	if _, ok := s.products[productID]; !ok {
		return catalog.NotFound("product", productID)
	}
	if i := s.findLine(userID, productID); i >= 0 {
		s.carts[i].Quantity++
		return nil
	}
	s.carts = append(s.carts, catalog.CartLine{ID: s.id(), UserID: userID, ProductID: productID, Quantity: 1})
	return nil
}

func (s *Store) ReduceProductInCart(_ context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("reduce product in cart"); err != nil {
		return false, err
	}
	i := s.findLine(userID, productID)
	if i < 0 {
		return false, nil
	}
	if s.carts[i].Quantity > 1 {
		s.carts[i].Quantity--
		return true, nil
	}
	s.carts = append(s.carts[:i], s.carts[i+1:]...)
	return false, nil
}

func (s *Store) DeleteFromCart(_ context.Context, userID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("delete from cart"); err != nil {
		return err
	}
	if i := s.findLine(userID, productID); i >= 0 {
		s.carts = append(s.carts[:i], s.carts[i+1:]...)
	}
	return nil
}

// AddUser inserts u unless the user already exists.
func (s *Store) AddUser(_ context.Context, u catalog.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("add user"); err != nil {
		return err
	}
	if _, ok := s.users[u.UserID]; !ok {
		s.users[u.UserID] = u
	}
	return nil
}

// User returns a stored user.
func (s *Store) User(id int64) (catalog.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}
