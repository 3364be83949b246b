package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	"github.com/m3rciful/shopbot/core/telegram/format"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/menu"
	"github.com/m3rciful/shopbot/shop/wizard"
)

// Admin callback namespaces.
const (
	namespaceAdminCategory = "adm_cat"
	namespaceAdminDelete   = "adm_del"
	namespaceAdminEdit     = "adm_edit"
)

var (
	adminCategoryCodec = callbacks.Codec{Prefix: namespaceAdminCategory}
	adminDeleteCodec   = callbacks.Codec{Prefix: namespaceAdminDelete}
	adminEditCodec     = callbacks.Codec{Prefix: namespaceAdminEdit}
)

func adminKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(textAdminHint, []string{LabelAddProduct, LabelAssortment, LabelBanner}, 2)
}

func (a *App) handleAdmin(c tele.Context) error {
	return tghelpers.SendText(c, textAdminMenu, &tele.SendOptions{ReplyMarkup: adminKeyboard()})
}

func (a *App) handleAddProduct(c tele.Context) error {
	reply, err := a.wizard.Start(tghelpers.BuildContext(c), tghelpers.SenderID(c))
	return a.startReply(c, reply, err)
}

func (a *App) handleBanner(c tele.Context) error {
	reply, err := a.wizard.StartBanner(tghelpers.BuildContext(c), tghelpers.SenderID(c))
	return a.startReply(c, reply, err)
}

func (a *App) handleAdminEdit(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return a.UnknownCallback()(c)
	}
	reply, err := a.wizard.StartEdit(ctx, tghelpers.SenderID(c), id)
	if rerr := c.Respond(); rerr != nil {
		logger.Debug(ctx, "tg", "callback.respond", slog.String("err", rerr.Error()))
	}
	return a.startReply(c, reply, err)
}

// startReply reports a refused start when another wizard is running.
func (a *App) startReply(c tele.Context, reply wizard.Reply, err error) error {
	if errors.Is(err, wizard.ErrActive) {
		return tghelpers.SendText(c, wizard.TextActive)
	}
	if err != nil {
		_ = tghelpers.SendText(c, textSorry)
		return err
	}
	return a.sendReply(c, reply)
}

func (a *App) handleAssortment(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	cats, err := a.store.GetCategories(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, textSorry)
		return err
	}
	if len(cats) == 0 {
		return tghelpers.SendText(c, textNoCategories)
	}
	markup, err := adminCategoryMarkup(cats)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, textChooseCat, &tele.SendOptions{ReplyMarkup: markup})
}

func adminCategoryMarkup(cats []catalog.Category) (*tele.ReplyMarkup, error) {
	btns := make([]keyboard.InlineBtn, 0, len(cats))
	for _, cat := range cats {
		data, err := adminCategoryCodec.Pack(callbacks.Int(cat.ID))
		if err != nil {
			return nil, err
		}
		btns = append(btns, keyboard.InlineBtn{Text: cat.Name, Data: data})
	}
	return keyboard.InlineAdjusted(btns, 2), nil
}

// handleAdminCategory sends every product of the chosen category as its own
// card with Delete and Edit buttons.
func (a *App) handleAdminCategory(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return a.UnknownCallback()(c)
	}
	products, err := a.store.GetAllProducts(ctx, id)
	if err != nil {
		_ = tghelpers.Toast(c, textSorry)
		return err
	}
	if err := c.Respond(); err != nil {
		logger.Debug(ctx, "tg", "callback.respond", slog.String("err", err.Error()))
	}
	if len(products) == 0 {
		return tghelpers.SendText(c, textEmptyCat)
	}
	for _, p := range products {
		markup, err := productCardMarkup(p.ID)
		if err != nil {
			return err
		}
		if err := tghelpers.SendPhoto(c, p.Image, a.productCard(p), markup); err != nil {
			return err
		}
	}
	logger.Info(ctx, "service.admin", "assortment.list",
		slog.Int64("category_id", id),
		slog.Int("count", len(products)),
	)
	return tghelpers.SendText(c, textListed)
}

func (a *App) productCard(p catalog.Product) string {
	return format.Lines(
		format.Bold(format.Escape(p.Name)),
		format.Escape(p.Description),
		fmt.Sprintf("Price: %s %s", menu.Money(p.Price).StringFixed(2), format.Escape(a.cfg.Shop.Currency)),
	)
}

func productCardMarkup(productID int64) (*tele.ReplyMarkup, error) {
	del, err := adminDeleteCodec.Pack(callbacks.Int(productID))
	if err != nil {
		return nil, err
	}
	edit, err := adminEditCodec.Pack(callbacks.Int(productID))
	if err != nil {
		return nil, err
	}
	return keyboard.InlineAdjusted([]keyboard.InlineBtn{
		{Text: "Delete", Data: del},
		{Text: "Edit", Data: edit},
	}, 2), nil
}

func (a *App) handleAdminDelete(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return a.UnknownCallback()(c)
	}
	if err := a.deleteProduct(ctx, id); err != nil {
		_ = tghelpers.Toast(c, textSorry)
		return err
	}
	if err := tghelpers.Toast(c, textDeleted); err != nil {
		logger.Debug(ctx, "tg", "callback.respond", slog.String("err", err.Error()))
	}
	return tghelpers.SendText(c, textDeleted)
}

func (a *App) deleteProduct(ctx context.Context, id int64) error {
	if err := a.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	logger.Info(ctx, "service.admin", "product.delete", slog.Int64("product_id", id))
	return nil
}
