package menu

import (
	"fmt"
	"strconv"

	"github.com/m3rciful/shopbot/core/telegram/callbacks"
)

// Level selects one of the four menu views.
type Level int

const (
	LevelMain Level = iota
	LevelCatalog
	LevelProducts
	LevelCart
)

func (l Level) String() string {
	switch l {
	case LevelMain:
		return "main"
	case LevelCatalog:
		return "catalog"
	case LevelProducts:
		return "products"
	case LevelCart:
		return "cart"
	}
	return "level_" + strconv.Itoa(int(l))
}

// Menu names carried in addresses.
const (
	MenuMain      = "main"
	MenuCatalog   = "catalog"
	MenuCart      = "cart"
	MenuAbout     = "about"
	MenuPayment   = "payment"
	MenuShipping  = "shipping"
	MenuCategory  = "category"
	MenuPrevious  = "previous"
	MenuNext      = "next"
	MenuAddToCart = "add_to_cart"
	MenuDelete    = "delete"
	MenuDecrement = "decrement"
	MenuIncrement = "increment"
	MenuOrder     = "order"
)

// Namespace is the callback namespace of menu buttons.
const Namespace = "menu"

var codec = callbacks.Codec{Prefix: Namespace}

// NavAddress identifies a menu view. Page is 1-based.
type NavAddress struct {
	Level     Level
	MenuName  string
	Category  *int64
	Page      int
	ProductID *int64
}

// Root is the address /start renders.
func Root() NavAddress {
	return NavAddress{Level: LevelMain, MenuName: MenuMain, Page: 1}
}

// Pack encodes the address as "menu:<level>:<menu>:<category>:<page>:<product>".
func (a NavAddress) Pack() (string, error) {
	page := a.Page
	if page < 1 {
		page = 1
	}
	return codec.Pack(
		strconv.Itoa(int(a.Level)),
		a.MenuName,
		callbacks.OptInt(a.Category),
		strconv.Itoa(page),
		callbacks.OptInt(a.ProductID),
	)
}

// ParseNavAddress decodes data produced by Pack. A page below 1 becomes 1.
func ParseNavAddress(data string) (NavAddress, error) {
	f, err := codec.Unpack(data, 5)
	if err != nil {
		return NavAddress{}, err
	}
	level, err := f.Int(0)
	if err != nil {
		return NavAddress{}, err
	}
	if level < int64(LevelMain) || level > int64(LevelCart) {
		return NavAddress{}, fmt.Errorf("menu: unknown level %d", level)
	}
	cat, err := f.OptInt(2)
	if err != nil {
		return NavAddress{}, err
	}
	page, err := f.Int(3)
	if err != nil {
		return NavAddress{}, err
	}
	product, err := f.OptInt(4)
	if err != nil {
		return NavAddress{}, err
	}
	if page < 1 {
		page = 1
	}
	return NavAddress{
		Level:     Level(level),
		MenuName:  f.Str(1),
		Category:  cat,
		Page:      int(page),
		ProductID: product,
	}, nil
}
