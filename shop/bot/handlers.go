package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/core/telegram/middleware"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/menu"
	"github.com/m3rciful/shopbot/shop/wizard"
)

// Admin reply keyboard labels. They double as command aliases.
const (
	LabelAddProduct = "Add product"
	LabelAssortment = "Assortment"
	LabelBanner     = "Add/Change banner"
)

const (
	textAddedToCart  = "Added to cart."
	textProductGone  = "This product is no longer available."
	textSorry        = "Something went wrong. Please try again later."
	textNoContent    = "Nothing here yet."
	textSlowDown     = "Too many requests, slow down."
	textAdminMenu    = "What would you like to do?"
	textAdminHint    = "Choose an action"
	textChooseCat    = "Choose a category"
	textNoCategories = "There are no categories yet."
	textEmptyCat     = "No products in this category yet."
	textListed       = "OK, here is the product list ⏫"
	textDeleted      = "Product deleted."
)

// register binds every command and callback namespace of the bot.
func (a *App) register(reg *tg.Registry, admin middleware.AdminOptions) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Open the shop",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     a.handleAdmin,
		Description: "Admin panel",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/add_product", commands.Command{
		Handler:     a.handleAddProduct,
		Description: "Add a product",
		AdminOnly:   true,
		Hidden:      true,
		Aliases:     []string{LabelAddProduct},
	})
	reg.RegisterCommand("/assortment", commands.Command{
		Handler:     a.handleAssortment,
		Description: "Browse products by category",
		AdminOnly:   true,
		Hidden:      true,
		Aliases:     []string{LabelAssortment},
	})
	reg.RegisterCommand("/banner", commands.Command{
		Handler:     a.handleBanner,
		Description: "Add or change a banner",
		AdminOnly:   true,
		Hidden:      true,
		Aliases:     []string{LabelBanner},
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Cancel the current action",
		Hidden:      true,
		Aliases:     []string{"cancel"},
	})
	reg.RegisterCommand("/back", commands.Command{
		Handler:     a.handleBack,
		Description: "Return to the previous step",
		Hidden:      true,
		Aliases:     []string{"back"},
	})

	adminOnly := middleware.AdminOnlyMiddleware(admin)
	callbacks := []struct {
		namespace string
		handler   tele.HandlerFunc
	}{
		{menu.Namespace, a.handleMenu},
		{wizard.CategoryNamespace, a.handleCategoryChoice},
		{namespaceAdminCategory, adminOnly(a.handleAdminCategory)},
		{namespaceAdminDelete, adminOnly(a.handleAdminDelete)},
		{namespaceAdminEdit, adminOnly(a.handleAdminEdit)},
	}
	for _, cb := range callbacks {
		if err := reg.RegisterCallback(cb.namespace, cb.handler); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	view, err := a.menu.Resolve(ctx, menu.Root(), tghelpers.SenderID(c))
	if err != nil {
		_ = tghelpers.SendText(c, textSorry)
		return err
	}
	return sendView(c, view)
}

// handleMenu serves every menu button. add_to_cart answers with a toast and
// leaves the message as is; other buttons redraw the message in place.
func (a *App) handleMenu(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	addr, err := menu.ParseNavAddress(c.Callback().Data)
	if err != nil {
		logger.Warn(ctx, "tg", "menu.parse", slog.String("err", err.Error()))
		return a.UnknownCallback()(c)
	}

	if addr.MenuName == menu.MenuAddToCart {
		return a.addToCart(ctx, c, addr)
	}

	view, err := a.menu.Resolve(ctx, addr, tghelpers.SenderID(c))
	if err != nil {
		_ = tghelpers.Toast(c, textSorry)
		return err
	}
	if err := editView(ctx, c, view); err != nil {
		return err
	}
	return c.Respond()
}

func (a *App) addToCart(ctx context.Context, c tele.Context, addr menu.NavAddress) error {
	if addr.ProductID == nil {
		return tghelpers.Toast(c, textProductGone)
	}
	err := a.menu.AddToCart(ctx, userFrom(c.Sender()), *addr.ProductID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return tghelpers.Toast(c, textProductGone)
	case err != nil:
		_ = tghelpers.Toast(c, textSorry)
		return err
	}
	return tghelpers.Toast(c, textAddedToCart)
}

func userFrom(u *tele.User) catalog.User {
	if u == nil {
		return catalog.User{}
	}
	return catalog.User{UserID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

func (a *App) handleCancel(c tele.Context) error {
	reply, err := a.wizard.Cancel(tghelpers.BuildContext(c), tghelpers.SenderID(c))
	if err != nil {
		return err
	}
	return a.sendReply(c, reply)
}

func (a *App) handleBack(c tele.Context) error {
	reply, err := a.wizard.Handle(tghelpers.BuildContext(c), tghelpers.SenderID(c), wizard.Input{Kind: wizard.KindBack})
	if err != nil {
		return err
	}
	return a.sendReply(c, reply)
}

// wizardFSM routes free text and photos to the wizard while a session is open.
type wizardFSM struct {
	*wizard.Engine
	app *App
}

func (f wizardFSM) ManagerHandler(c tele.Context) error {
	reply, err := f.Handle(tghelpers.BuildContext(c), tghelpers.SenderID(c), inputFrom(c))
	if err != nil {
		_ = tghelpers.SendText(c, textSorry)
		return err
	}
	return f.app.sendReply(c, reply)
}

// inputFrom converts a message into wizard input. The largest photo size is
// what telebot exposes as Message.Photo.
func inputFrom(c tele.Context) wizard.Input {
	if m := c.Message(); m != nil && m.Photo != nil {
		return wizard.Photo(m.Photo.FileID, m.Caption)
	}
	return wizard.Text(c.Text())
}

// handleCategoryChoice feeds a category button press to the wizard.
func (a *App) handleCategoryChoice(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.wizard.Handle(ctx, tghelpers.SenderID(c), wizard.Choice(c.Callback().Data))
	if err != nil {
		_ = tghelpers.Toast(c, textSorry)
		return err
	}
	if err := c.Respond(); err != nil {
		logger.Debug(ctx, "tg", "callback.respond", slog.String("err", err.Error()))
	}
	return a.sendReply(c, reply)
}

// sendReply delivers a wizard reply. Category prompts carry inline buttons;
// replies that end a session bring back the admin keyboard.
func (a *App) sendReply(c tele.Context, r wizard.Reply) error {
	if strings.TrimSpace(r.Text) == "" {
		return nil
	}
	opts := &tele.SendOptions{}
	switch {
	case len(r.Buttons) > 0:
		opts.ReplyMarkup = keyboard.Inline(r.Buttons...)
	case r.Done() && a.cfg.Telegram.IsAdmin(tghelpers.SenderID(c)):
		opts.ReplyMarkup = adminKeyboard()
	case r.Outcome == wizard.OutcomePrompt:
		opts.ReplyMarkup = keyboard.RemoveKeyboard()
	}
	return tghelpers.SendText(c, r.Text, opts)
}
