package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func newBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func messageUpdate(id int, userID int64, chatType tele.ChatType) tele.Update {
	return tele.Update{
		ID: id,
		Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: chatType},
			Text:   "hi",
		},
	}
}

func TestPrivateOnlyMiddleware(t *testing.T) {
	b := newBot(t)
	var calls int
	h := PrivateOnlyMiddleware(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(b.NewContext(messageUpdate(1, 5, tele.ChatPrivate))))
	require.NoError(t, h(b.NewContext(messageUpdate(2, 5, tele.ChatGroup))))
	assert.Equal(t, 1, calls)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	b := newBot(t)
	var passed, rejected int
	mw := AdminOnlyMiddleware(AdminOptions{
		IsAdmin:  func(id int64) bool { return id == 42 },
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	h := mw(func(tele.Context) error { passed++; return nil })

	require.NoError(t, h(b.NewContext(messageUpdate(1, 42, tele.ChatPrivate))))
	require.NoError(t, h(b.NewContext(messageUpdate(2, 7, tele.ChatPrivate))))
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, rejected)

	assert.False(t, AdminOptions{}.Allows(42))
}

func TestRateLimitMiddleware(t *testing.T) {
	b := newBot(t)
	clock := time.Unix(1_700_000_000, 0)
	var passed, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return clock },
	})
	h := mw(func(tele.Context) error { passed++; return nil })

	require.NoError(t, h(b.NewContext(messageUpdate(1, 9, tele.ChatPrivate))))
	require.NoError(t, h(b.NewContext(messageUpdate(2, 9, tele.ChatPrivate))))
	clock = clock.Add(2 * time.Second)
	require.NoError(t, h(b.NewContext(messageUpdate(3, 9, tele.ChatPrivate))))

	cb := tele.Update{ID: 4, Callback: &tele.Callback{Sender: &tele.User{ID: 9}, Data: "menu:0"}}
	require.NoError(t, h(b.NewContext(cb)))

	assert.Equal(t, 3, passed)
	assert.Equal(t, 1, limited)
}

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	b := newBot(t)
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(b.NewContext(messageUpdate(1, 1, tele.ChatPrivate)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

type sendRecorder struct {
	tele.Context
	fail bool
}

func (s *sendRecorder) Send(interface{}, ...interface{}) error {
	if s.fail {
		return errors.New("send failed")
	}
	return nil
}

func TestMessageMetricsMiddleware(t *testing.T) {
	b := newBot(t)
	base := &sendRecorder{Context: b.NewContext(messageUpdate(1, 1, tele.ChatPrivate))}

	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("plain")
		return c.Send("with kb", &tele.ReplyMarkup{})
	})
	require.NoError(t, h(base))

	msgs, kb := GetCounters(base)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
}
