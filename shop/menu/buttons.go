package menu

import (
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/paginator"
)

// Button labels.
const (
	LabelCatalog  = "Products"
	LabelCart     = "Cart"
	LabelAbout    = "About"
	LabelPayment  = "Payment"
	LabelShipping = "Shipping"
	LabelBack     = "Back"
	LabelBuy      = "Buy"
	LabelPrevious = "◀ Prev"
	LabelNext     = "Next ▶"
	LabelDelete   = "Delete"
	LabelDecrease = "-1"
	LabelIncrease = "+1"
	LabelHome     = "Home"
	LabelOrder    = "Order"
)

// buttons collects packed menu buttons and keeps the first packing error.
type buttons struct {
	items []keyboard.InlineBtn
	err   error
}

func (b *buttons) add(text string, addr NavAddress) {
	if b.err != nil {
		return
	}
	data, err := addr.Pack()
	if err != nil {
		b.err = err
		return
	}
	b.items = append(b.items, keyboard.InlineBtn{Text: text, Data: data})
}

// rows lays the collected buttons out with sizes and resets the collector.
func (b *buttons) rows(sizes ...int) [][]keyboard.InlineBtn {
	out := keyboard.Adjust(b.items, sizes...)
	b.items = nil
	return out
}

func cartAddress() NavAddress {
	return NavAddress{Level: LevelCart, MenuName: MenuCart, Page: 1}
}

func homeAddress() NavAddress {
	return NavAddress{Level: LevelMain, MenuName: MenuMain, Page: 1}
}

func mainButtons() ([][]keyboard.InlineBtn, error) {
	var b buttons
	b.add(LabelCatalog, NavAddress{Level: LevelCatalog, MenuName: MenuCatalog, Page: 1})
	b.add(LabelCart, cartAddress())
	b.add(LabelAbout, NavAddress{Level: LevelMain, MenuName: MenuAbout, Page: 1})
	b.add(LabelPayment, NavAddress{Level: LevelMain, MenuName: MenuPayment, Page: 1})
	b.add(LabelShipping, NavAddress{Level: LevelMain, MenuName: MenuShipping, Page: 1})
	return b.rows(2), b.err
}

func catalogButtons(cats []catalog.Category) ([][]keyboard.InlineBtn, error) {
	var b buttons
	b.add(LabelBack, homeAddress())
	b.add(LabelCart, cartAddress())
	for _, c := range cats {
		id := c.ID
		b.add(c.Name, NavAddress{Level: LevelProducts, MenuName: MenuCategory, Category: &id, Page: 1})
	}
	return b.rows(2), b.err
}

func emptyProductsButtons() ([][]keyboard.InlineBtn, error) {
	var b buttons
	b.add(LabelBack, NavAddress{Level: LevelCatalog, MenuName: MenuCatalog, Page: 1})
	b.add(LabelCart, cartAddress())
	return b.rows(2), b.err
}

func productButtons(category int64, page paginator.Page[catalog.Product]) ([][]keyboard.InlineBtn, error) {
	var b buttons
	pid := page.Items[0].ID
	b.add(LabelBack, NavAddress{Level: LevelCatalog, MenuName: MenuCatalog, Page: 1})
	b.add(LabelCart, cartAddress())
	b.add(LabelBuy, NavAddress{Level: LevelCart, MenuName: MenuAddToCart, Page: 1, ProductID: &pid})
	out := b.rows(2, 1)

	if page.HasPrevious {
		b.add(LabelPrevious, NavAddress{Level: LevelProducts, MenuName: MenuPrevious, Category: &category, Page: page.Number - 1})
	}
	if page.HasNext {
		b.add(LabelNext, NavAddress{Level: LevelProducts, MenuName: MenuNext, Category: &category, Page: page.Number + 1})
	}
	if len(b.items) > 0 {
		out = append(out, b.items)
	}
	return out, b.err
}

func emptyCartButtons() ([][]keyboard.InlineBtn, error) {
	var b buttons
	b.add(LabelHome, homeAddress())
	return b.rows(3), b.err
}

func cartButtons(page paginator.Page[catalog.CartLine]) ([][]keyboard.InlineBtn, error) {
	var b buttons
	pid := page.Items[0].ProductID
	b.add(LabelDelete, NavAddress{Level: LevelCart, MenuName: MenuDelete, Page: page.Number, ProductID: &pid})
	b.add(LabelDecrease, NavAddress{Level: LevelCart, MenuName: MenuDecrement, Page: page.Number, ProductID: &pid})
	b.add(LabelIncrease, NavAddress{Level: LevelCart, MenuName: MenuIncrement, Page: page.Number, ProductID: &pid})
	out := b.rows(3)

	if page.HasPrevious {
		b.add(LabelPrevious, NavAddress{Level: LevelCart, MenuName: MenuPrevious, Page: page.Number - 1})
	}
	if page.HasNext {
		b.add(LabelNext, NavAddress{Level: LevelCart, MenuName: MenuNext, Page: page.Number + 1})
	}
	if len(b.items) > 0 {
		out = append(out, b.items)
		b.items = nil
	}

	b.add(LabelHome, homeAddress())
	b.add(LabelOrder, NavAddress{Level: LevelMain, MenuName: MenuOrder, Page: 1})
	out = append(out, b.items)
	return out, b.err
}
