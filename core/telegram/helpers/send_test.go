package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
	"github.com/m3rciful/shopbot/core/telegram/sender"
)

type captureContext struct {
	tele.Context
	sent []interface{}
	opts []interface{}
}

func (c *captureContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, what)
	c.opts = append(c.opts, opts...)
	return nil
}

func newContext(t *testing.T) *captureContext {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	u := tele.Update{ID: 11, Message: &tele.Message{
		Sender: &tele.User{ID: 7},
		Chat:   &tele.Chat{ID: 9, Type: tele.ChatPrivate},
	}}
	return &captureContext{Context: b.NewContext(u)}
}

func TestBuildContextCarriesMetadata(t *testing.T) {
	c := newContext(t)
	ctx := BuildContext(c)
	assert.Equal(t, int64(7), logger.UserIDFrom(ctx))
	assert.Equal(t, int64(9), logger.ChatIDFrom(ctx))
	assert.Equal(t, 11, logger.UpdateIDFrom(ctx))
	assert.Equal(t, "11:9:7", logger.RIDFrom(ctx))

	ctx = WithHandler(c, "menu")
	again, ok := ContextFrom(c)
	require.True(t, ok)
	assert.Equal(t, "menu", logger.HandlerFrom(again))
	assert.Equal(t, ctx, again)
	assert.Equal(t, int64(7), SenderID(c))
}

func TestSendPhotoSynchronousWithoutDispatcher(t *testing.T) {
	SetDispatcher(nil)
	c := newContext(t)
	require.NoError(t, SendPhoto(c, "file-1", "<b>hi</b>", &tele.ReplyMarkup{}))
	require.Len(t, c.sent, 1)
	photo, ok := c.sent[0].(*tele.Photo)
	require.True(t, ok)
	assert.Equal(t, "file-1", photo.FileID)
	opts := c.opts[0].(*tele.SendOptions)
	assert.Equal(t, tele.ModeHTML, opts.ParseMode)
	assert.NotNil(t, opts.ReplyMarkup)
}

func TestSendHTMLThroughDispatcher(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 1})
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	c := newContext(t)
	require.NoError(t, SendHTML(c, "hello"))
	d.Close()
	require.Len(t, c.sent, 1)
	assert.Equal(t, "hello", c.sent[0])
}
