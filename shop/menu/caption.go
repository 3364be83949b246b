package menu

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/shopbot/core/telegram/format"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/paginator"
)

const textNoProducts = "No products in this category yet."

func escape(s string) string { return format.Escape(s) }

func bold(s string) string { return format.Bold(s) }

func (r *Resolver) money(v decimal.Decimal) string {
	return Money(v).StringFixed(2) + " " + r.currency
}

func (r *Resolver) productCaption(page paginator.Page[catalog.Product]) string {
	p := page.Items[0]
	return format.Lines(
		bold(p.Name),
		escape(p.Description),
		"Price: "+escape(r.money(p.Price)),
		bold(fmt.Sprintf("Product %d of %d", page.Number, page.Total)),
	)
}

func (r *Resolver) cartCaption(page paginator.Page[catalog.CartLine], total decimal.Decimal) string {
	l := page.Items[0]
	return format.Lines(
		bold(l.Product.Name),
		escape(fmt.Sprintf("%s x %d = %s", r.money(l.Product.Price), l.Quantity, r.money(l.LineTotal()))),
		fmt.Sprintf("Item %d of %d in the cart.", page.Number, page.Total),
		"Cart total: "+escape(r.money(total)),
	)
}
