package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	Step   string            `json:"step"`
	Fields map[string]string `json:"fields,omitempty"`
}

var (
	_ Store[session] = (*MemoryStore[session])(nil)
	_ Store[session] = (*RedisStore[session])(nil)
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore[session](0)

	_, ok, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, 1, session{Step: "name"}))
	got, ok, err := m.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "name", got.Step)

	require.NoError(t, m.Delete(ctx, 1))
	_, ok, _ = m.Get(ctx, 1)
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1_700_000_000, 0)
	m := NewMemoryStore[session](time.Minute)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Put(ctx, 1, session{Step: "price"}))
	require.NoError(t, m.Put(ctx, 2, session{Step: "image"}))

	clock = clock.Add(30 * time.Second)
	require.NoError(t, m.Put(ctx, 2, session{Step: "image"}))

	clock = clock.Add(45 * time.Second)
	_, ok, _ := m.Get(ctx, 1)
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, 2)
	assert.True(t, ok)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStoreZeroTTLNeverSweeps(t *testing.T) {
	m := NewMemoryStore[session](0)
	require.NoError(t, m.Put(context.Background(), 1, session{}))
	m.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.Zero(t, m.Sweep())
	_, ok, _ := m.Get(context.Background(), 1)
	assert.True(t, ok)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := NewRedisStore[session](db, "", 10*time.Minute)
	key := "shopbot:session:42"
	assert.Equal(t, key, store.Key(42))

	payload, err := json.Marshal(session{Step: "category", Fields: map[string]string{"name": "Tea"}})
	require.NoError(t, err)

	mock.ExpectSet(key, payload, 10*time.Minute).SetVal("OK")
	require.NoError(t, store.Put(ctx, 42, session{Step: "category", Fields: map[string]string{"name": "Tea"}}))

	mock.ExpectGet(key).SetVal(string(payload))
	got, ok, err := store.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Tea", got.Fields["name"])

	mock.ExpectGet(key).RedisNil()
	_, ok, err = store.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet(key).SetVal("{broken")
	_, _, err = store.Get(ctx, 42)
	require.ErrorIs(t, err, ErrCodec)

	mock.ExpectDel(key).SetErr(errors.New("conn reset"))
	require.Error(t, store.Delete(ctx, 42))

	require.NoError(t, mock.ExpectationsWereMet())
}
