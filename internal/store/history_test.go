package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locker-tab-backend/internal/model"
)

func strPtr(s string) *string { return &s }

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

// backends returns every KVStore implementation under test.
func backends(t *testing.T) map[string]KVStore {
	rs, _ := newRedisStore(t)
	return map[string]KVStore{
		"memory": NewMemoryStore(),
		"gorm":   NewGormStore(newSQLiteDB(t)),
		"redis":  rs,
	}
}

func TestHistoryStore_RoundTrip(t *testing.T) {
	histories := [][]model.HistoryRecord{
		{},
		{{BoxNumber: 4}},
		{
			{BoxNumber: 5, StartTime: strPtr("2024/1/2 10:00"), EndTime: strPtr("2024/1/2 11:00")},
			{BoxNumber: 5, StartTime: strPtr("2024/1/3 09:30")},
			{BoxNumber: 12},
		},
	}

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			h := NewHistoryStore(kv, nil)
			ctx := context.Background()
			for _, records := range histories {
				require.NoError(t, h.Save(ctx, "alice@contoso.com", records))
				got, err := h.Load(ctx, "alice@contoso.com")
				require.NoError(t, err)
				assert.Equal(t, records, got)
			}
		})
	}
}

func TestHistoryStore_MissingIsEmpty(t *testing.T) {
	h := NewHistoryStore(NewMemoryStore(), nil)

	got, err := h.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHistoryStore_MalformedIsEmpty(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "history:alice", "{not json"))

	got, err := NewHistoryStore(kv, nil).Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryStore_NullBlobIsEmpty(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "history", "null"))

	got, err := NewHistoryStore(kv, nil).Load(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHistoryStore_ScopedPerUser(t *testing.T) {
	h := NewHistoryStore(NewMemoryStore(), nil)
	ctx := context.Background()

	require.NoError(t, h.Save(ctx, "alice", []model.HistoryRecord{{BoxNumber: 1}}))
	got, err := h.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryStore_Clear(t *testing.T) {
	rs, mr := newRedisStore(t)
	h := NewHistoryStore(rs, nil)
	ctx := context.Background()

	require.NoError(t, h.Save(ctx, "alice", []model.HistoryRecord{{BoxNumber: 1}}))
	assert.True(t, mr.Exists("history:alice"))

	require.NoError(t, h.Clear(ctx, "alice"))
	assert.False(t, mr.Exists("history:alice"))

	got, err := h.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryStore_SaveNilWritesEmptyArray(t *testing.T) {
	kv := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, NewHistoryStore(kv, nil).Save(ctx, "alice", nil))

	raw, err := kv.Get(ctx, "history:alice")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}
