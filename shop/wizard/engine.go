package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/shop/catalog"
)

const component = "service.wizard"

// ErrActive is returned when a wizard is started while another one is running.
var ErrActive = errors.New("wizard: session already active")

// Engine drives product and banner sessions. Transitions for one user are
// serialized; different users proceed independently.
type Engine struct {
	store    catalog.Storage
	sessions state.Store[Session]
	now      func() time.Time

	mu    sync.Mutex
	locks map[int64]*userLock
}

// userLock is dropped from Engine.locks once no caller holds or awaits it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// New builds an engine over store, keeping sessions in sessions.
func New(store catalog.Storage, sessions state.Store[Session]) *Engine {
	return &Engine{
		store:    store,
		sessions: sessions,
		now:      time.Now,
		locks:    make(map[int64]*userLock),
	}
}

func (e *Engine) lock(userID int64) func() {
	e.mu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &userLock{}
		e.locks[userID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(e.locks, userID)
		}
		e.mu.Unlock()
	}
}

// Name is the conversation name used in handler logs.
func (e *Engine) Name() string { return "wizard" }

// Session returns the user's live session. A stored session that no longer
// decodes is deleted and reported as absent.
func (e *Engine) Session(ctx context.Context, userID int64) (Session, bool, error) {
	s, ok, err := e.sessions.Get(ctx, userID)
	if errors.Is(err, state.ErrCodec) {
		logger.Warn(ctx, component, "wizard.session_discard", slog.String("err", err.Error()))
		if derr := e.sessions.Delete(ctx, userID); derr != nil {
			return Session{}, false, fmt.Errorf("wizard: discard session: %w", derr)
		}
		return Session{}, false, nil
	}
	if err != nil || !ok || s.Step == StepNone {
		return Session{}, false, err
	}
	return s, true, nil
}

// InProgress reports whether the user has a live session. Store failures count
// as no session.
func (e *Engine) InProgress(ctx context.Context, userID int64) bool {
	_, ok, err := e.Session(ctx, userID)
	if err != nil {
		logger.Warn(ctx, component, "wizard.session", slog.String("err", err.Error()))
	}
	return ok
}

func (e *Engine) save(ctx context.Context, userID int64, s *Session) error {
	s.UpdatedAt = e.now()
	if err := e.sessions.Put(ctx, userID, *s); err != nil {
		return fmt.Errorf("wizard: save session: %w", err)
	}
	return nil
}

func (e *Engine) clear(ctx context.Context, userID int64) error {
	if err := e.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("wizard: clear session: %w", err)
	}
	return nil
}

func (e *Engine) ensureIdle(ctx context.Context, userID int64) error {
	_, ok, err := e.Session(ctx, userID)
	if err != nil {
		return err
	}
	if ok {
		return ErrActive
	}
	return nil
}

// Start opens a create-mode product session at the name step.
func (e *Engine) Start(ctx context.Context, userID int64) (Reply, error) {
	defer e.lock(userID)()
	if err := e.ensureIdle(ctx, userID); err != nil {
		return Reply{}, err
	}
	s := Session{Step: StepName, Fields: map[Step]string{}}
	if err := e.save(ctx, userID, &s); err != nil {
		return Reply{}, err
	}
	logger.Info(ctx, component, "wizard.start", slog.String("mode", "create"))
	return e.prompt(ctx, userID, s, firstPrompts, OutcomePrompt)
}

// StartEdit opens an edit-mode session for productID with a snapshot of the
// product taken now.
func (e *Engine) StartEdit(ctx context.Context, userID, productID int64) (Reply, error) {
	defer e.lock(userID)()
	if err := e.ensureIdle(ctx, userID); err != nil {
		return Reply{}, err
	}
	p, err := e.store.GetProduct(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		return Reply{Text: TextGone, Outcome: OutcomeIgnored}, nil
	}
	if err != nil {
		e.logFailure(ctx, "wizard.start", err)
		return Reply{Text: TextFailed, Outcome: OutcomeFailed}, nil
	}
	s := Session{Step: StepName, Fields: map[Step]string{}, Editing: &p}
	if err := e.save(ctx, userID, &s); err != nil {
		return Reply{}, err
	}
	logger.Info(ctx, component, "wizard.start",
		slog.String("mode", "edit"),
		slog.Int64("product_id", productID),
	)
	return e.prompt(ctx, userID, s, firstPrompts, OutcomePrompt)
}

// StartBanner opens a banner session that waits for a photo captioned with a
// page name.
func (e *Engine) StartBanner(ctx context.Context, userID int64) (Reply, error) {
	defer e.lock(userID)()
	if err := e.ensureIdle(ctx, userID); err != nil {
		return Reply{}, err
	}
	pages, err := e.store.GetInfoPages(ctx)
	if err != nil {
		e.logFailure(ctx, "wizard.start", err)
		return Reply{Text: TextFailed, Outcome: OutcomeFailed}, nil
	}
	s := Session{Step: StepBanner}
	if err := e.save(ctx, userID, &s); err != nil {
		return Reply{}, err
	}
	logger.Info(ctx, component, "wizard.start", slog.String("mode", "banner"))
	return Reply{Text: bannerPrompt(pages), Outcome: OutcomePrompt}, nil
}

// Cancel drops the user's session. Without a session it does nothing.
func (e *Engine) Cancel(ctx context.Context, userID int64) (Reply, error) {
	return e.Handle(ctx, userID, Input{Kind: KindCancel})
}

// Handle feeds one input to the user's session.
func (e *Engine) Handle(ctx context.Context, userID int64, in Input) (Reply, error) {
	defer e.lock(userID)()
	s, ok, err := e.Session(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{Outcome: OutcomeIgnored}, nil
	}
	s.Fields = maps.Clone(s.Fields)
	if s.Fields == nil {
		s.Fields = map[Step]string{}
	}

	switch in.Kind {
	case KindCancel:
		if err := e.clear(ctx, userID); err != nil {
			return Reply{}, err
		}
		logger.Info(ctx, component, "wizard.cancel", slog.String("step", string(s.Step)))
		return Reply{Text: TextCancelled, Outcome: OutcomeCancelled}, nil
	case KindBack:
		return e.back(ctx, userID, s)
	}

	if s.Step == StepBanner {
		return e.banner(ctx, userID, in)
	}

	value, rejection, err := e.accept(ctx, s, in)
	if err != nil {
		return e.fail(ctx, userID, "wizard.step", err)
	}
	if rejection != "" {
		logger.Debug(ctx, component, "wizard.invalid", slog.String("step", string(s.Step)))
		reply := Reply{Text: rejection, Outcome: OutcomeInvalid}
		if s.Step == StepCategory {
			if reply.Buttons, err = e.loadCategoryButtons(ctx); err != nil {
				return e.fail(ctx, userID, "wizard.step", err)
			}
		}
		return reply, nil
	}

	s.Fields[s.Step] = value
	next := s.Step.Next()
	if next == StepNone {
		return e.complete(ctx, userID, s)
	}
	logger.Debug(ctx, component, "wizard.step",
		slog.String("step", string(s.Step)),
		slog.String("next", string(next)),
	)
	s.Step = next
	if err := e.save(ctx, userID, &s); err != nil {
		return Reply{}, err
	}
	return e.prompt(ctx, userID, s, firstPrompts, OutcomePrompt)
}

func (e *Engine) back(ctx context.Context, userID int64, s Session) (Reply, error) {
	if s.Step == StepBanner {
		return Reply{Text: TextNoPrevBanner, Outcome: OutcomeInvalid}, nil
	}
	prev := s.Step.Previous()
	if prev == StepNone {
		return Reply{Text: TextNoPrevious, Outcome: OutcomeInvalid}, nil
	}
	logger.Debug(ctx, component, "wizard.back",
		slog.String("step", string(s.Step)),
		slog.String("next", string(prev)),
	)
	s.Step = prev
	if err := e.save(ctx, userID, &s); err != nil {
		return Reply{}, err
	}
	reply, err := e.prompt(ctx, userID, s, againPrompts, OutcomeBack)
	if reply.Outcome == OutcomeBack {
		reply.Text = TextBackPrefix + "\n" + reply.Text
	}
	return reply, err
}

// prompt renders the prompt of the session's current step.
func (e *Engine) prompt(ctx context.Context, userID int64, s Session, texts map[Step]string, outcome Outcome) (Reply, error) {
	reply := Reply{Text: texts[s.Step], Outcome: outcome}
	if s.EditMode() {
		reply.Text += "\n" + TextKeepHint
	}
	if s.Step == StepCategory {
		btns, err := e.loadCategoryButtons(ctx)
		if err != nil {
			return e.fail(ctx, userID, "wizard.prompt", err)
		}
		reply.Buttons = btns
	}
	return reply, nil
}

func (e *Engine) loadCategoryButtons(ctx context.Context) ([][]keyboard.InlineBtn, error) {
	cats, err := e.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	return categoryButtons(cats)
}

// accept validates in for the current step. It returns the value to store, or
// a non-empty rejection message when the step must be repeated.
func (e *Engine) accept(ctx context.Context, s Session, in Input) (string, string, error) {
	if s.EditMode() && in.keep() {
		return keptValue(s.Step, *s.Editing), "", nil
	}

	switch s.Step {
	case StepName:
		t, ok := in.text()
		if !ok {
			return "", notText[s.Step], nil
		}
		if nameRejected(utf8.RuneCountInString(t)) {
			return "", rejections[s.Step], nil
		}
		return t, "", nil

	case StepDescription:
		t, ok := in.text()
		if !ok {
			return "", notText[s.Step], nil
		}
		if utf8.RuneCountInString(t) <= 4 {
			return "", rejections[s.Step], nil
		}
		return t, "", nil

	case StepCategory:
		if in.Choice == "" {
			return "", rejections[s.Step], nil
		}
		id, err := ParseCategoryChoice(in.Choice)
		if err != nil {
			return "", rejections[s.Step], nil
		}
		cats, err := e.store.GetCategories(ctx)
		if err != nil {
			return "", "", err
		}
		for _, c := range cats {
			if c.ID == id {
				return strconv.FormatInt(id, 10), "", nil
			}
		}
		return "", rejections[s.Step], nil

	case StepPrice:
		t, ok := in.text()
		if !ok {
			return "", notText[s.Step], nil
		}
		price, ok := parsePrice(t)
		if !ok {
			return "", rejections[s.Step], nil
		}
		return price.String(), "", nil

	case StepImage:
		if in.Photo == "" {
			return "", rejections[s.Step], nil
		}
		return in.Photo, "", nil
	}
	return "", "", fmt.Errorf("wizard: unexpected step %q", s.Step)
}

// nameRejected joins both bounds with &&, so no length is ever rejected.
func nameRejected(n int) bool {
	return n <= 4 && n >= 150
}

// parsePrice accepts anything strconv.ParseFloat accepts except NaN and
// infinities, keeping the exact decimal digits when possible.
func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	return decimal.NewFromFloat(f), true
}

func keptValue(step Step, p catalog.Product) string {
	switch step {
	case StepName:
		return p.Name
	case StepDescription:
		return p.Description
	case StepCategory:
		return strconv.FormatInt(p.CategoryID, 10)
	case StepPrice:
		return p.Price.String()
	case StepImage:
		return p.Image
	}
	return ""
}

// productInput converts collected fields into a storage input.
func productInput(fields map[Step]string) (catalog.ProductInput, error) {
	cat, err := strconv.ParseInt(fields[StepCategory], 10, 64)
	if err != nil {
		return catalog.ProductInput{}, fmt.Errorf("wizard: category %q: %w", fields[StepCategory], err)
	}
	price, err := decimal.NewFromString(fields[StepPrice])
	if err != nil {
		return catalog.ProductInput{}, fmt.Errorf("wizard: price %q: %w", fields[StepPrice], err)
	}
	return catalog.ProductInput{
		Name:        fields[StepName],
		Description: fields[StepDescription],
		Price:       price,
		Image:       fields[StepImage],
		CategoryID:  cat,
	}, nil
}

// complete persists the product and always ends the session.
func (e *Engine) complete(ctx context.Context, userID int64, s Session) (Reply, error) {
	in, err := productInput(s.Fields)
	if err != nil {
		return e.fail(ctx, userID, "wizard.complete", err)
	}
	if s.EditMode() {
		if err := e.store.UpdateProduct(ctx, s.Editing.ID, in); err != nil {
			return e.fail(ctx, userID, "wizard.complete", err)
		}
		if err := e.clear(ctx, userID); err != nil {
			return Reply{}, err
		}
		logger.Info(ctx, component, "wizard.complete",
			slog.String("outcome", string(OutcomeUpdated)),
			slog.Int64("product_id", s.Editing.ID),
		)
		return Reply{Text: TextUpdated, Outcome: OutcomeUpdated}, nil
	}

	p, err := e.store.AddProduct(ctx, in)
	if err != nil {
		return e.fail(ctx, userID, "wizard.complete", err)
	}
	if err := e.clear(ctx, userID); err != nil {
		return Reply{}, err
	}
	logger.Info(ctx, component, "wizard.complete",
		slog.String("outcome", string(OutcomeCreated)),
		slog.Int64("product_id", p.ID),
	)
	return Reply{Text: TextCreated, Outcome: OutcomeCreated}, nil
}

func (e *Engine) banner(ctx context.Context, userID int64, in Input) (Reply, error) {
	if in.Photo == "" {
		return Reply{Text: TextBannerPhoto, Outcome: OutcomeInvalid}, nil
	}
	pages, err := e.store.GetInfoPages(ctx)
	if err != nil {
		return e.fail(ctx, userID, "wizard.banner", err)
	}
	page := strings.TrimSpace(in.Caption)
	known := false
	for _, p := range pages {
		if p.Name == page {
			known = true
			break
		}
	}
	if !known {
		return Reply{Text: bannerRejection(pages), Outcome: OutcomeInvalid}, nil
	}
	if err := e.store.ChangeBannerImage(ctx, page, in.Photo); err != nil {
		return e.fail(ctx, userID, "wizard.banner", err)
	}
	if err := e.clear(ctx, userID); err != nil {
		return Reply{}, err
	}
	logger.Info(ctx, component, "wizard.complete",
		slog.String("outcome", string(OutcomeBannerChanged)),
		slog.String("menu", page),
	)
	return Reply{Text: TextBannerChanged, Outcome: OutcomeBannerChanged}, nil
}

// fail reports err, drops the session and returns the apology reply.
func (e *Engine) fail(ctx context.Context, userID int64, event string, err error) (Reply, error) {
	e.logFailure(ctx, event, err)
	if cerr := e.clear(ctx, userID); cerr != nil {
		return Reply{}, errors.Join(err, cerr)
	}
	return Reply{Text: TextFailed, Outcome: OutcomeFailed}, nil
}

func (e *Engine) logFailure(ctx context.Context, event string, err error) {
	logger.Error(ctx, component, event,
		slog.String("outcome", string(OutcomeFailed)),
		slog.String("err", err.Error()),
	)
}
