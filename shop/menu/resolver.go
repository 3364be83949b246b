// Package menu resolves navigation addresses into rendered menu screens and
// applies cart mutations requested from the cart view.
package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/paginator"
)

const component = "service.menu"

// RenderInstruction is a screen ready for the transport: a photo, an HTML caption
// and inline keyboard rows. An empty Image means the banner has no photo yet.
type RenderInstruction struct {
	Image   string
	Caption string
	Buttons [][]keyboard.InlineBtn
	// Page and Pages describe the paginated views; zero elsewhere.
	Page  int
	Pages int
}

// pageSize is the number of products or cart lines per screen. Product and
// cart views render a single card, so it is fixed.
const pageSize = 1

// Options tunes the resolver.
type Options struct {
	// Currency is appended to prices.
	Currency string
}

// Resolver renders menu views from storage.
type Resolver struct {
	store    catalog.Storage
	currency string
}

// NewResolver builds a resolver over store.
func NewResolver(store catalog.Storage, opts Options) *Resolver {
	if opts.Currency == "" {
		opts.Currency = "$"
	}
	return &Resolver{store: store, currency: opts.Currency}
}

// Resolve renders the view addressed by addr for userID. Missing banners and empty
// result sets produce an empty-state view; only storage failures return an error.
func (r *Resolver) Resolve(ctx context.Context, addr NavAddress, userID int64) (RenderInstruction, error) {
	if addr.Page < 1 {
		addr.Page = 1
	}
	var (
		out RenderInstruction
		err error
	)
	switch addr.Level {
	case LevelMain:
		out, err = r.mainMenu(ctx, addr)
	case LevelCatalog:
		out, err = r.catalog(ctx)
	case LevelProducts:
		out, err = r.products(ctx, addr)
	case LevelCart:
		out, err = r.cart(ctx, addr, userID)
	default:
		return RenderInstruction{}, fmt.Errorf("menu: unknown level %d", addr.Level)
	}
	if err != nil {
		logger.Error(ctx, component, "menu.resolve",
			slog.String("menu", addr.MenuName),
			slog.String("step", addr.Level.String()),
			slog.String("err", err.Error()),
		)
		return RenderInstruction{}, err
	}
	logger.Debug(ctx, component, "menu.resolve",
		slog.String("status", "ok"),
		slog.String("menu", addr.MenuName),
		slog.String("step", addr.Level.String()),
		slog.Int("page", out.Page),
		slog.Int("pages", out.Pages),
	)
	return out, nil
}

// banner loads name and degrades a missing row to an empty banner.
func (r *Resolver) banner(ctx context.Context, name string) (catalog.Banner, error) {
	b, err := r.store.GetBanner(ctx, name)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.Banner{Name: name}, nil
	}
	return b, err
}

func (r *Resolver) mainMenu(ctx context.Context, addr NavAddress) (RenderInstruction, error) {
	name := addr.MenuName
	if name == "" {
		name = MenuMain
	}
	b, err := r.banner(ctx, name)
	if err != nil {
		return RenderInstruction{}, err
	}
	kb, err := mainButtons()
	if err != nil {
		return RenderInstruction{}, err
	}
	return RenderInstruction{Image: b.Image, Caption: escape(b.Description), Buttons: kb}, nil
}

func (r *Resolver) catalog(ctx context.Context) (RenderInstruction, error) {
	b, err := r.banner(ctx, MenuCatalog)
	if err != nil {
		return RenderInstruction{}, err
	}
	cats, err := r.store.GetCategories(ctx)
	if err != nil {
		return RenderInstruction{}, err
	}
	kb, err := catalogButtons(cats)
	if err != nil {
		return RenderInstruction{}, err
	}
	return RenderInstruction{Image: b.Image, Caption: escape(b.Description), Buttons: kb}, nil
}

func (r *Resolver) products(ctx context.Context, addr NavAddress) (RenderInstruction, error) {
	var items []catalog.Product
	if addr.Category != nil {
		var err error
		if items, err = r.store.GetAllProducts(ctx, *addr.Category); err != nil {
			return RenderInstruction{}, err
		}
	}
	if len(items) == 0 {
		b, err := r.banner(ctx, MenuCatalog)
		if err != nil {
			return RenderInstruction{}, err
		}
		kb, err := emptyProductsButtons()
		if err != nil {
			return RenderInstruction{}, err
		}
		return RenderInstruction{Image: b.Image, Caption: bold(textNoProducts), Buttons: kb}, nil
	}

	page, err := paginator.Paginate(items, paginator.Clamp(addr.Page, paginator.Pages(len(items), pageSize)), pageSize)
	if err != nil {
		return RenderInstruction{}, err
	}
	kb, err := productButtons(*addr.Category, page)
	if err != nil {
		return RenderInstruction{}, err
	}
	return RenderInstruction{
		Image:   page.Items[0].Image,
		Caption: r.productCaption(page),
		Buttons: kb,
		Page:    page.Number,
		Pages:   page.Total,
	}, nil
}
