package menu

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/paginator"
)

const cartComponent = "service.cart"

// mutateCart applies the cart action named by addr and returns the page to show.
func (r *Resolver) mutateCart(ctx context.Context, addr NavAddress, userID int64) (int, error) {
	page := addr.Page
	if addr.ProductID == nil {
		return page, nil
	}
	pid := *addr.ProductID

	switch addr.MenuName {
	case MenuDelete:
		if err := r.store.DeleteFromCart(ctx, userID, pid); err != nil {
			return page, err
		}
		if page > 1 {
			page--
		}
	case MenuDecrement:
		still, err := r.store.ReduceProductInCart(ctx, userID, pid)
		if err != nil {
			return page, err
		}
		if page > 1 && !still {
			page--
		}
	case MenuIncrement:
		err := r.store.AddToCart(ctx, userID, pid)
		if errors.Is(err, catalog.ErrNotFound) {
			return page, nil
		}
		if err != nil {
			return page, err
		}
	default:
		return page, nil
	}
	logger.Info(ctx, cartComponent, "cart.mutate",
		slog.String("menu", addr.MenuName),
		slog.Int64("product_id", pid),
		slog.Int("page", page),
	)
	return page, nil
}

func (r *Resolver) cart(ctx context.Context, addr NavAddress, userID int64) (RenderInstruction, error) {
	page, err := r.mutateCart(ctx, addr, userID)
	if err != nil {
		return RenderInstruction{}, err
	}

	lines, err := r.store.GetUserCarts(ctx, userID)
	if err != nil {
		return RenderInstruction{}, err
	}
	if len(lines) == 0 {
		b, err := r.banner(ctx, MenuCart)
		if err != nil {
			return RenderInstruction{}, err
		}
		kb, err := emptyCartButtons()
		if err != nil {
			return RenderInstruction{}, err
		}
		return RenderInstruction{Image: b.Image, Caption: bold(b.Description), Buttons: kb}, nil
	}

	p, err := paginator.Paginate(lines, paginator.Clamp(page, paginator.Pages(len(lines), pageSize)), pageSize)
	if err != nil {
		return RenderInstruction{}, err
	}
	kb, err := cartButtons(p)
	if err != nil {
		return RenderInstruction{}, err
	}
	return RenderInstruction{
		Image:   p.Items[0].Product.Image,
		Caption: r.cartCaption(p, CartTotal(lines)),
		Buttons: kb,
		Page:    p.Number,
		Pages:   p.Total,
	}, nil
}

// Money rounds v to cents, half away from zero.
func Money(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// CartTotal sums quantity times unit price over lines, rounded to cents.
func CartTotal(lines []catalog.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return Money(sum)
}

// AddToCart registers the user if needed and adds one unit of productID.
func (r *Resolver) AddToCart(ctx context.Context, u catalog.User, productID int64) error {
	if err := r.store.AddUser(ctx, u); err != nil {
		return err
	}
	if err := r.store.AddToCart(ctx, u.UserID, productID); err != nil {
		return err
	}
	logger.Info(ctx, cartComponent, "cart.add",
		slog.String("menu", MenuAddToCart),
		slog.Int64("product_id", productID),
	)
	return nil
}
