package wizard

import (
	"strconv"
	"strings"

	"github.com/m3rciful/shopbot/core/telegram/callbacks"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/shop/catalog"
)

// Outcome tells the caller what a transition did.
type Outcome string

const (
	OutcomePrompt        Outcome = "prompt"
	OutcomeInvalid       Outcome = "invalid"
	OutcomeBack          Outcome = "back"
	OutcomeCancelled     Outcome = "cancelled"
	OutcomeCreated       Outcome = "created"
	OutcomeUpdated       Outcome = "updated"
	OutcomeBannerChanged Outcome = "banner_changed"
	OutcomeFailed        Outcome = "failed"
	OutcomeIgnored       Outcome = "ignored"
)

// Reply is the message the transport sends back. Buttons are set only when the
// category step is shown.
type Reply struct {
	Text    string
	Buttons [][]keyboard.InlineBtn
	Outcome Outcome
}

// Done reports whether the reply ended the session.
func (r Reply) Done() bool {
	switch r.Outcome {
	case OutcomeCancelled, OutcomeCreated, OutcomeUpdated, OutcomeBannerChanged, OutcomeFailed:
		return true
	}
	return false
}

// CategoryNamespace is the callback namespace of category choice buttons.
const CategoryNamespace = "wiz_cat"

var categoryCodec = callbacks.Codec{Prefix: CategoryNamespace}

// Texts shown by the wizard.
const (
	TextCancelled     = "Actions cancelled."
	TextNoPrevious    = "There is no previous step. Enter the product name or send \"cancel\"."
	TextNoPrevBanner  = "There is no previous step. Send the banner photo or \"cancel\"."
	TextBackPrefix    = "OK, you are back at the previous step."
	TextCreated       = "Product added."
	TextUpdated       = "Product updated."
	TextFailed        = "Something went wrong and the changes were not saved. Please try again later."
	TextActive        = "Finish the current action or send \"cancel\" first."
	TextGone          = "This product no longer exists."
	TextKeepHint      = "Send \".\" to keep the current value."
	TextBannerChanged = "Banner added or changed."
	TextBannerPhoto   = "Send the banner photo or \"cancel\"."
)

var (
	firstPrompts = map[Step]string{
		StepName:        "Enter the product name:",
		StepDescription: "Enter the product description:",
		StepCategory:    "Choose a category:",
		StepPrice:       "Now enter the product price:",
		StepImage:       "Upload the product image:",
	}
	againPrompts = map[Step]string{
		StepName:        "Enter the name again:",
		StepDescription: "Enter the description again:",
		StepCategory:    "Choose the category again ⬆️",
		StepPrice:       "Enter the price again:",
		StepImage:       "Upload the image again:",
	}
	rejections = map[Step]string{
		StepName:        "The name must be 5 to 150 characters long. Enter it again:",
		StepDescription: "The description is too short. Enter it again:",
		StepCategory:    "Choose a category from the buttons.",
		StepPrice:       "Enter a valid price.",
		StepImage:       "Send a photo of the product.",
	}
	notText = map[Step]string{
		StepName:        "Invalid input, enter the product name as text.",
		StepDescription: "Invalid input, enter the product description as text.",
		StepPrice:       "Invalid input, enter the product price.",
	}
)

func categoryButtons(cats []catalog.Category) ([][]keyboard.InlineBtn, error) {
	btns := make([]keyboard.InlineBtn, 0, len(cats))
	for _, c := range cats {
		data, err := categoryCodec.Pack(callbacks.Int(c.ID))
		if err != nil {
			return nil, err
		}
		btns = append(btns, keyboard.InlineBtn{Text: c.Name, Data: data})
	}
	return keyboard.Adjust(btns, 2), nil
}

// ParseCategoryChoice extracts the category id from a choice payload, accepting
// both the full token and the bare id.
func ParseCategoryChoice(payload string) (int64, error) {
	if ns, rest := callbacks.Split(payload); ns == CategoryNamespace {
		payload = rest
	}
	return strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
}

func bannerPrompt(pages []catalog.Banner) string {
	return "Send the banner photo.\nIn the caption, name the page it is for:\n" + pageNames(pages)
}

func bannerRejection(pages []catalog.Banner) string {
	return "Enter a valid page name, for example:\n" + pageNames(pages)
}

func pageNames(pages []catalog.Banner) string {
	names := make([]string, len(pages))
	for i, p := range pages {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
