package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/shop/catalog"
	"github.com/m3rciful/shopbot/shop/store/memstore"
)

const admin = int64(100)

type fixture struct {
	store *memstore.Store
	eng   *Engine
	cats  []catalog.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.CreateCategories(ctx, catalog.DefaultCategories))
	require.NoError(t, s.AddBanners(ctx, catalog.DefaultBanners))
	cats, err := s.GetCategories(ctx)
	require.NoError(t, err)
	return &fixture{store: s, eng: New(s, state.NewMemoryStore[Session](0)), cats: cats}
}

func (f *fixture) send(t *testing.T, uid int64, in Input) Reply {
	t.Helper()
	r, err := f.eng.Handle(context.Background(), uid, in)
	require.NoError(t, err)
	return r
}

func (f *fixture) session(t *testing.T, uid int64) Session {
	t.Helper()
	s, ok, err := f.eng.Session(context.Background(), uid)
	require.NoError(t, err)
	require.True(t, ok)
	return s
}

func (f *fixture) idle(t *testing.T, uid int64) {
	t.Helper()
	_, ok, err := f.eng.Session(context.Background(), uid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func (f *fixture) choice(id int64) Input {
	return Choice(fmt.Sprintf("%s:%d", CategoryNamespace, id))
}

func (f *fixture) toPrice(t *testing.T) {
	t.Helper()
	_, err := f.eng.Start(context.Background(), admin)
	require.NoError(t, err)
	f.send(t, admin, Text("Green tea"))
	f.send(t, admin, Text("Loose leaf, 100 g"))
	r := f.send(t, admin, f.choice(f.cats[0].ID))
	require.Equal(t, OutcomePrompt, r.Outcome)
	require.Equal(t, StepPrice, f.session(t, admin).Step)
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.eng.Start(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, firstPrompts[StepName], r.Text)
	assert.True(t, f.eng.InProgress(ctx, admin))

	r = f.send(t, admin, Text("Green tea"))
	assert.Equal(t, firstPrompts[StepDescription], r.Text)

	r = f.send(t, admin, Text("Loose leaf, 100 g"))
	assert.Equal(t, firstPrompts[StepCategory], r.Text)
	require.Len(t, r.Buttons, 1)
	require.Len(t, r.Buttons[0], 2)
	assert.Equal(t, "Food", r.Buttons[0][0].Text)

	r = f.send(t, admin, Choice(r.Buttons[0][0].Data))
	assert.Equal(t, firstPrompts[StepPrice], r.Text)

	r = f.send(t, admin, Text("19.99"))
	assert.Equal(t, firstPrompts[StepImage], r.Text)

	r = f.send(t, admin, Photo("file-1", ""))
	assert.Equal(t, OutcomeCreated, r.Outcome)
	assert.Equal(t, TextCreated, r.Text)
	assert.True(t, r.Done())
	f.idle(t, admin)

	products, err := f.store.GetAllProducts(ctx, f.cats[0].ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "Green tea", p.Name)
	assert.Equal(t, "Loose leaf, 100 g", p.Description)
	assert.Equal(t, "19.99", p.Price.String())
	assert.Equal(t, "file-1", p.Image)
}

func TestBackPreservesFields(t *testing.T) {
	f := newFixture(t)
	f.toPrice(t)

	r := f.send(t, admin, Text("back"))
	assert.Equal(t, OutcomeBack, r.Outcome)
	assert.Contains(t, r.Text, againPrompts[StepCategory])
	assert.NotEmpty(t, r.Buttons)
	s := f.session(t, admin)
	assert.Equal(t, StepCategory, s.Step)
	assert.Equal(t, "Green tea", s.Fields[StepName])
	assert.Equal(t, "Loose leaf, 100 g", s.Fields[StepDescription])

	r = f.send(t, admin, Text("/back"))
	assert.Contains(t, r.Text, againPrompts[StepDescription])
	r = f.send(t, admin, Text("Back"))
	assert.Contains(t, r.Text, againPrompts[StepName])
	assert.Equal(t, StepName, f.session(t, admin).Step)

	r = f.send(t, admin, Text("back"))
	assert.Equal(t, OutcomeInvalid, r.Outcome)
	assert.Equal(t, TextNoPrevious, r.Text)
	s = f.session(t, admin)
	assert.Equal(t, StepName, s.Step)
	assert.Equal(t, "Green tea", s.Fields[StepName])

	r = f.send(t, admin, Text("Black tea"))
	assert.Equal(t, StepDescription, f.session(t, admin).Step)
	assert.Equal(t, "Black tea", f.session(t, admin).Fields[StepName])
	assert.Equal(t, OutcomePrompt, r.Outcome)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.eng.Cancel(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, r.Outcome)

	f.toPrice(t)
	r = f.send(t, admin, Text(" /Cancel "))
	assert.Equal(t, OutcomeCancelled, r.Outcome)
	assert.Equal(t, TextCancelled, r.Text)
	f.idle(t, admin)

	_, err = f.eng.Start(ctx, admin)
	require.NoError(t, err)
	s := f.session(t, admin)
	assert.Empty(t, s.Fields)
	assert.Nil(t, s.Editing)
}

func TestStartWhileActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.eng.Start(ctx, admin)
	require.NoError(t, err)

	_, err = f.eng.Start(ctx, admin)
	require.ErrorIs(t, err, ErrActive)
	_, err = f.eng.StartEdit(ctx, admin, 1)
	require.ErrorIs(t, err, ErrActive)
	_, err = f.eng.StartBanner(ctx, admin)
	require.ErrorIs(t, err, ErrActive)
}

func TestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.eng.Start(ctx, admin)
	require.NoError(t, err)

	r := f.send(t, admin, Photo("file-x", "caption"))
	assert.Equal(t, OutcomeInvalid, r.Outcome)
	assert.Equal(t, notText[StepName], r.Text)

	r = f.send(t, admin, Text("Tea"))
	assert.Equal(t, OutcomePrompt, r.Outcome, "short names pass the name check")

	r = f.send(t, admin, Text("abcd"))
	assert.Equal(t, OutcomeInvalid, r.Outcome)
	assert.Equal(t, rejections[StepDescription], r.Text)
	r = f.send(t, admin, Text("чайный"))
	assert.Equal(t, OutcomePrompt, r.Outcome)

	r = f.send(t, admin, Text("Food"))
	assert.Equal(t, OutcomeInvalid, r.Outcome)
	assert.NotEmpty(t, r.Buttons)
	r = f.send(t, admin, f.choice(999))
	assert.Equal(t, OutcomeInvalid, r.Outcome)
	assert.Equal(t, rejections[StepCategory], r.Text)
	r = f.send(t, admin, Choice("junk"))
	assert.Equal(t, OutcomeInvalid, r.Outcome)
	r = f.send(t, admin, Choice(fmt.Sprint(f.cats[1].ID)))
	assert.Equal(t, OutcomePrompt, r.Outcome)

	for _, bad := range []string{"abc", "NaN", "inf", ""} {
		r = f.send(t, admin, Text(bad))
		assert.Equal(t, OutcomeInvalid, r.Outcome, bad)
	}
	r = f.send(t, admin, Text("5"))
	assert.Equal(t, OutcomePrompt, r.Outcome)

	r = f.send(t, admin, Text(KeepSentinel))
	assert.Equal(t, OutcomeInvalid, r.Outcome, "keep is edit-mode only")
	assert.Equal(t, rejections[StepImage], r.Text)
	assert.Equal(t, StepImage, f.session(t, admin).Step)

	s := f.session(t, admin)
	assert.Equal(t, fmt.Sprint(f.cats[1].ID), s.Fields[StepCategory])
	assert.Equal(t, "5", s.Fields[StepPrice])
}

func TestNameBoundsNeverReject(t *testing.T) {
	for n := 0; n <= 300; n++ {
		assert.False(t, nameRejected(n), n)
	}
}

func TestEditKeepsPreviousValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orig, err := f.store.AddProduct(ctx, catalog.ProductInput{
		Name:        "Cheesecake",
		Description: "New York style",
		Price:       decimal.RequireFromString("7.40"),
		Image:       "file-old",
		CategoryID:  f.cats[0].ID,
	})
	require.NoError(t, err)

	r, err := f.eng.StartEdit(ctx, admin, orig.ID)
	require.NoError(t, err)
	assert.Contains(t, r.Text, TextKeepHint)
	s := f.session(t, admin)
	require.NotNil(t, s.Editing)
	assert.Equal(t, orig.ID, s.Editing.ID)

	f.send(t, admin, Text(KeepSentinel))
	f.send(t, admin, Text("Baked with ricotta"))
	f.send(t, admin, Text(KeepSentinel))
	r = f.send(t, admin, Text(KeepSentinel))
	assert.Equal(t, OutcomePrompt, r.Outcome)

	s = f.session(t, admin)
	assert.Equal(t, StepImage, s.Step)
	assert.Equal(t, "Cheesecake", s.Fields[StepName])
	assert.Equal(t, fmt.Sprint(f.cats[0].ID), s.Fields[StepCategory])
	assert.Equal(t, orig.Price.String(), s.Fields[StepPrice])

	r = f.send(t, admin, Text(KeepSentinel))
	assert.Equal(t, OutcomeUpdated, r.Outcome)
	f.idle(t, admin)

	got, err := f.store.GetProduct(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cheesecake", got.Name)
	assert.Equal(t, "Baked with ricotta", got.Description)
	assert.True(t, orig.Price.Equal(got.Price))
	assert.Equal(t, "file-old", got.Image)
}

func TestStartEditMissingProduct(t *testing.T) {
	f := newFixture(t)
	r, err := f.eng.StartEdit(context.Background(), admin, 404)
	require.NoError(t, err)
	assert.Equal(t, TextGone, r.Text)
	f.idle(t, admin)
}

func TestStorageFailureEndsSession(t *testing.T) {
	f := newFixture(t)
	f.toPrice(t)
	f.send(t, admin, Text("3"))

	f.store.Fail = errors.New("connection reset")
	r := f.send(t, admin, Photo("file-1", ""))
	assert.Equal(t, OutcomeFailed, r.Outcome)
	assert.Equal(t, TextFailed, r.Text)
	assert.True(t, r.Done())
	f.idle(t, admin)
}

func TestCategoryPromptFailureEndsSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.eng.Start(context.Background(), admin)
	require.NoError(t, err)
	f.send(t, admin, Text("Green tea"))

	f.store.Fail = errors.New("timeout")
	r := f.send(t, admin, Text("Loose leaf"))
	assert.Equal(t, OutcomeFailed, r.Outcome)
	f.idle(t, admin)
}

func TestEditSessionsArePerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var ids []int64
	for _, name := range []string{"Latte", "Mocha"} {
		p, err := f.store.AddProduct(ctx, catalog.ProductInput{Name: name, Price: decimal.NewFromInt(3), CategoryID: f.cats[1].ID})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		uid := admin + int64(i)
		_, err := f.eng.StartEdit(ctx, uid, id)
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, in := range []Input{Text(KeepSentinel), Text("Updated by user"), Text(KeepSentinel), Text("4.5"), Text(KeepSentinel)} {
				_, _ = f.eng.Handle(ctx, uid, in)
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		p, err := f.store.GetProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Updated by user", p.Description)
		assert.Equal(t, "4.5", p.Price.String())
	}
	latte, _ := f.store.GetProduct(ctx, ids[0])
	mocha, _ := f.store.GetProduct(ctx, ids[1])
	assert.Equal(t, "Latte", latte.Name)
	assert.Equal(t, "Mocha", mocha.Name)
}

func TestBannerFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.eng.StartBanner(ctx, admin)
	require.NoError(t, err)
	assert.Contains(t, r.Text, "main")

	r = f.send(t, admin, Text("hello"))
	assert.Equal(t, TextBannerPhoto, r.Text)
	r = f.send(t, admin, Text("back"))
	assert.Equal(t, TextNoPrevBanner, r.Text)
	r = f.send(t, admin, Photo("file-b", "nowhere"))
	assert.Equal(t, OutcomeInvalid, r.Outcome)
	assert.Contains(t, r.Text, "shipping")

	r = f.send(t, admin, Photo("file-b", " main "))
	assert.Equal(t, OutcomeBannerChanged, r.Outcome)
	f.idle(t, admin)

	b, err := f.store.GetBanner(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "file-b", b.Image)
}

func TestHandleWithoutSession(t *testing.T) {
	f := newFixture(t)
	r := f.send(t, admin, Text("Green tea"))
	assert.Equal(t, OutcomeIgnored, r.Outcome)
	assert.False(t, f.eng.InProgress(context.Background(), admin))
}

// undecodableStore fails every Get with a codec error until the key is deleted.
type undecodableStore struct {
	state.Store[Session]
	corrupt bool
	deletes int
}

func (u *undecodableStore) Get(ctx context.Context, userID int64) (Session, bool, error) {
	if u.corrupt {
		return Session{}, false, fmt.Errorf("%w: bad json", state.ErrCodec)
	}
	return u.Store.Get(ctx, userID)
}

func (u *undecodableStore) Delete(ctx context.Context, userID int64) error {
	u.corrupt = false
	u.deletes++
	return u.Store.Delete(ctx, userID)
}

func TestUndecodableSessionIsDiscarded(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.CreateCategories(ctx, catalog.DefaultCategories))

	t.Run("cancel", func(t *testing.T) {
		sessions := &undecodableStore{Store: state.NewMemoryStore[Session](0), corrupt: true}
		eng := New(s, sessions)

		r, err := eng.Cancel(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, r.Outcome)
		assert.Equal(t, 1, sessions.deletes)

		r, err = eng.Start(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, OutcomePrompt, r.Outcome)
		assert.True(t, eng.InProgress(ctx, admin))
	})

	t.Run("start", func(t *testing.T) {
		sessions := &undecodableStore{Store: state.NewMemoryStore[Session](0), corrupt: true}
		eng := New(s, sessions)

		r, err := eng.StartBanner(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, OutcomePrompt, r.Outcome)
		assert.Equal(t, 1, sessions.deletes)
	})

	t.Run("in progress", func(t *testing.T) {
		sessions := &undecodableStore{Store: state.NewMemoryStore[Session](0), corrupt: true}
		eng := New(s, sessions)

		assert.False(t, eng.InProgress(ctx, admin))
		assert.False(t, sessions.corrupt)
	})
}

func TestUserLocksArePruned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		uid := admin + int64(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.eng.Start(ctx, uid)
			_, _ = f.eng.Handle(ctx, uid, Text("Green tea"))
			_, _ = f.eng.Cancel(ctx, uid)
		}()
	}
	wg.Wait()

	f.eng.mu.Lock()
	defer f.eng.mu.Unlock()
	assert.Empty(t, f.eng.locks)
}

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"cancel":  KindCancel,
		"/cancel": KindCancel,
		"CANCEL":  KindCancel,
		"back":    KindBack,
		" /Back ": KindBack,
		"backup":  KindStep,
		".":       KindStep,
		"":        KindStep,
	}
	for in, want := range cases {
		assert.Equal(t, want, Classify(in), in)
	}
}

func TestStepOrder(t *testing.T) {
	assert.Equal(t, StepDescription, StepName.Next())
	assert.Equal(t, StepNone, StepImage.Next())
	assert.Equal(t, StepPrice, StepImage.Previous())
	assert.Equal(t, StepNone, StepName.Previous())
	assert.Equal(t, StepNone, StepBanner.Next())
	assert.Equal(t, StepNone, StepBanner.Previous())
}

func TestParseCategoryChoice(t *testing.T) {
	id, err := ParseCategoryChoice("wiz_cat:12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	id, err = ParseCategoryChoice("7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	_, err = ParseCategoryChoice("wiz_cat:x")
	assert.Error(t, err)
}
