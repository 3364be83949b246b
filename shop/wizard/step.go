// Package wizard implements the admin conversations that create and edit
// products and replace banner images.
package wizard

import (
	"strings"
	"time"

	"github.com/m3rciful/shopbot/shop/catalog"
)

// Step identifies where a session is. Product steps run in the fixed order of
// productSteps; StepBanner is the single step of the banner flow.
type Step string

const (
	StepNone        Step = ""
	StepName        Step = "name"
	StepDescription Step = "description"
	StepCategory    Step = "category"
	StepPrice       Step = "price"
	StepImage       Step = "image"
	StepBanner      Step = "banner"
)

var productSteps = []Step{StepName, StepDescription, StepCategory, StepPrice, StepImage}

var stepIndex = func() map[Step]int {
	m := make(map[Step]int, len(productSteps))
	for i, s := range productSteps {
		m[s] = i
	}
	return m
}()

func (s Step) index() int {
	if i, ok := stepIndex[s]; ok {
		return i
	}
	return -1
}

// Next returns the step after s, or StepNone after the last one.
func (s Step) Next() Step {
	i := s.index()
	if i < 0 || i+1 >= len(productSteps) {
		return StepNone
	}
	return productSteps[i+1]
}

// Previous returns the step before s, or StepNone for the first one.
func (s Step) Previous() Step {
	i := s.index()
	if i <= 0 {
		return StepNone
	}
	return productSteps[i-1]
}

// Session is the per-user wizard state. Fields is keyed by the step that
// collected the value. Editing holds the snapshot of the product being edited;
// nil means a new product is being created.
type Session struct {
	Step      Step             `json:"step"`
	Fields    map[Step]string  `json:"fields,omitempty"`
	Editing   *catalog.Product `json:"editing,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// EditMode reports whether the session edits an existing product.
func (s Session) EditMode() bool { return s.Editing != nil }

// Kind classifies an input.
type Kind int

const (
	KindStep Kind = iota
	KindCancel
	KindBack
)

func (k Kind) String() string {
	switch k {
	case KindCancel:
		return "cancel"
	case KindBack:
		return "back"
	}
	return "step"
}

// KeepSentinel keeps the edited product's value for the current step.
const KeepSentinel = "."

// Input is one user action fed to the wizard.
type Input struct {
	Kind    Kind
	Text    string
	Photo   string
	Caption string
	Choice  string
}

// Text classifies free text. Commands and plain words are treated the same.
func Text(s string) Input {
	return Input{Kind: Classify(s), Text: s}
}

// Photo is an uploaded photo with its caption.
func Photo(fileID, caption string) Input {
	return Input{Kind: KindStep, Photo: fileID, Caption: caption}
}

// Choice is a button selection carrying the button's payload.
func Choice(payload string) Input {
	return Input{Kind: KindStep, Choice: payload}
}

// Classify maps "cancel" and "back", with or without a leading slash and in any
// case, to their kinds; everything else is step input.
func Classify(s string) Kind {
	w := strings.ToLower(strings.TrimSpace(s))
	w = strings.TrimPrefix(w, "/")
	switch w {
	case "cancel":
		return KindCancel
	case "back":
		return KindBack
	}
	return KindStep
}

// text returns the input as plain text; photos and button choices are not text.
func (in Input) text() (string, bool) {
	if in.Photo != "" || in.Choice != "" {
		return "", false
	}
	return in.Text, true
}

func (in Input) keep() bool {
	t, ok := in.text()
	return ok && t == KeepSentinel
}
