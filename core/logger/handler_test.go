package logger

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLine(t *testing.T, format logFormat, emit func(log *slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	emit(slog.New(handler))
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := captureLine(t, formatKV, func(log *slog.Logger) {
		LogEvent(ctx, log.With("component", "service.cart"), slog.LevelInfo, "cart.mutated",
			slog.String("status", "OK"),
			slog.Int64("product_id", 3),
		)
	})

	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=service.cart", "event=cart.mutated", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	require.GreaterOrEqual(t, len(tokens), len(expected), line)
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(Background(), "rid-json")

	line := captureLine(t, formatJSON, func(log *slog.Logger) {
		LogEvent(ctx, log.With("component", "service.wizard"), slog.LevelError, "wizard.persist",
			slog.String("status", "fail"),
			slog.String("step", "image"),
			slog.String("err", "boom"),
		)
	})

	require.True(t, strings.HasPrefix(line, "{"), line)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"service.wizard"`, `"event":"wizard.persist"`, `"status":"fail"`, `"rid":"rid-json"`, `"step":"image"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.Greater(t, idx, pos, "prefix %s not found in order within %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := "123:456:789"
	ctx := WithRID(Background(), rawRID)

	kv := captureLine(t, formatKV, func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test")
	})
	assert.Contains(t, kv, "rid="+CompactRID(rawRID))
	assert.NotContains(t, kv, "rid_full=")
	assert.Contains(t, kv, "component=app")

	js := captureLine(t, formatJSON, func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test")
	})
	assert.Contains(t, js, `"rid":"`+CompactRID(rawRID)+`"`)
	assert.Contains(t, js, `"rid_full":"`+rawRID+`"`)
	assert.Contains(t, js, `"ts_unix_nano"`)
}

func TestStructuredHandlerDurationAndGroups(t *testing.T) {
	line := captureLine(t, formatKV, func(log *slog.Logger) {
		log.WithGroup("db").Info("query", slog.Duration("duration", 1500000), slog.String("op", "select"))
	})
	assert.Contains(t, line, "event=query")
	assert.Contains(t, line, "db.duration_ms=2")
	assert.Contains(t, line, "db.op=select")
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	line := captureLine(t, formatKV, func(log *slog.Logger) {
		LogEvent(Background(), log, slog.LevelInfo, "x",
			slog.String("outcome", "weird"),
			slog.String("empty", ""),
		)
	})
	assert.NotContains(t, line, "outcome=")
	assert.NotContains(t, line, "empty=")
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "1.c.rs", CompactRID("1:12:1000"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "1:x:3", CompactRID("1:x:3"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\tc", SanitizeLimit("a\x00b\tc\x7f", 10))
	assert.Equal(t, "абв", SanitizeLimit("абвгд", 3))
	assert.Equal(t, "", SanitizeLimit("abc", 0))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	n, d := parseRatioSpec("2/5")
	assert.Equal(t, [2]int{2, 5}, [2]int{n, d})
	n, d = parseRatioSpec("10")
	assert.Equal(t, [2]int{1, 10}, [2]int{n, d})
	n, d = parseRatioSpec("bad")
	assert.Equal(t, [2]int{0, 0}, [2]int{n, d})
}
