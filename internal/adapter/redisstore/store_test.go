package redisstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/salesdesk-backend/internal/config"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

var fixedNow = time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newTestStore(t *testing.T, client *redis.Client, prefix string) *Store {
	t.Helper()
	s := New(client, prefix, discardLogger(), WithClock(func() time.Time { return fixedNow }))
	t.Cleanup(s.Close)
	return s
}

func decode(t *testing.T, doc *docstore.Document) map[string]any {
	t.Helper()
	m, err := docstore.DecodeMap(doc.Data)
	require.NoError(t, err)
	return m
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), config.RedisConfig{Addr: addr})
	require.Error(t, err)
}

func TestStore_Ping(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := newTestStore(t, client, "ping")

	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}

// ---------------------------------------------------------------------------
// CRUD
// ---------------------------------------------------------------------------

func TestStore_CreateGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")
	ctx := context.Background()

	id, err := s.Create(ctx, "quotes", map[string]any{
		"client":    "ACME",
		"createdAt": docstore.ServerTimestamp,
		"skip":      nil,
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, docstore.Ref{Collection: "quotes", ID: id})
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, map[string]any{"client": "ACME", "createdAt": "2024-01-12T10:00:00Z"}, decode(t, doc))
	assert.True(t, doc.CreateTime.Equal(fixedNow))
}

func TestStore_Get_NotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")

	_, err := s.Get(context.Background(), docstore.Ref{Collection: "quotes", ID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	doc, err := s.Lookup(context.Background(), docstore.Ref{Collection: "quotes", ID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestStore_UpdateFields(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")
	ctx := context.Background()
	ref := docstore.Ref{Collection: "quotes", ID: "q1"}

	require.NoError(t, s.Set(ctx, ref, map[string]any{"a": 1, "b": 2, "c": 3}, false))
	require.NoError(t, s.UpdateFields(ctx, ref, map[string]any{
		"a": 10,
		"b": docstore.Clear,
		"c": docstore.Null,
	}))

	doc, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(10), "c": nil}, decode(t, doc))

	err = s.UpdateFields(ctx, docstore.Ref{Collection: "quotes", ID: "missing"}, map[string]any{"a": 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SetMergeAndReplace(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")
	ctx := context.Background()
	ref := docstore.Ref{Collection: "settings", ID: "followup"}

	require.NoError(t, s.Set(ctx, ref, map[string]any{"a": 1, "b": 2}, true))
	require.NoError(t, s.Set(ctx, ref, map[string]any{"b": 3, "c": 4}, true))
	doc, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(3), "c": float64(4)}, decode(t, doc))

	require.NoError(t, s.Set(ctx, ref, map[string]any{"z": true}, false))
	doc, err = s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"z": true}, decode(t, doc))
}

func TestStore_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := newTestStore(t, client, "t")
	ctx := context.Background()

	id, err := s.Create(ctx, "quotes", map[string]any{"a": 1})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, docstore.Ref{Collection: "quotes", ID: id}))
	require.NoError(t, s.Delete(ctx, docstore.Ref{Collection: "quotes", ID: id}))

	_, err = s.Get(ctx, docstore.Ref{Collection: "quotes", ID: id})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists("t:doc:quotes:"+id))
	members, _ := mr.ZMembers("t:idx:quotes")
	assert.NotContains(t, members, id)
}

// ---------------------------------------------------------------------------
// Batch
// ---------------------------------------------------------------------------

func TestStore_Batch_AllOrNothing(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")
	ctx := context.Background()

	existing := docstore.Ref{Collection: "sales", ID: "s1"}
	require.NoError(t, s.Set(ctx, existing, map[string]any{"amount": 1}, false))

	err := s.Batch(ctx, []docstore.Op{
		docstore.UpdateOp(existing, map[string]any{"amount": 99}),
		docstore.CreateOp(docstore.Ref{Collection: "audit", ID: "a1"}, map[string]any{"x": 1}),
		docstore.CreateOp(existing, map[string]any{"dup": true}),
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	doc, err := s.Get(ctx, existing)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"amount": float64(1)}, decode(t, doc))
	_, err = s.Get(ctx, docstore.Ref{Collection: "audit", ID: "a1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Batch_CreateThenUpdate(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")
	ctx := context.Background()
	ref := docstore.Ref{Collection: "quotes", ID: "q1"}

	require.NoError(t, s.Batch(ctx, []docstore.Op{
		docstore.CreateOp(ref, map[string]any{"status": "pending"}),
		docstore.UpdateOp(ref, map[string]any{"status": "won"}),
	}))

	doc, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "won"}, decode(t, doc))
}

func TestStore_Batch_EmptyPath(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")

	err := s.Batch(context.Background(), []docstore.Op{docstore.DeleteOp(docstore.Ref{ID: "x"})})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---------------------------------------------------------------------------
// Query
// ---------------------------------------------------------------------------

func TestStore_Query_OrderAndFilters(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")
	ctx := context.Background()

	var ids []string
	for _, seller := range []string{"s1", "s2", "s1", "s3"} {
		id, err := s.Create(ctx, "quotes", map[string]any{"sellerId": seller})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	all, err := s.Query(ctx, docstore.CollectionQuery("quotes"))
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := range ids {
		assert.Equal(t, ids[i], all[i].ID)
	}

	mine, err := s.Query(ctx, docstore.CollectionQuery("quotes").Where("sellerId", docstore.OpEqual, "s1"))
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, ids[0], mine[0].ID)
	assert.Equal(t, ids[2], mine[1].ID)

	some, err := s.Query(ctx, docstore.CollectionQuery("quotes").Where("sellerId", docstore.OpIn, []string{"s2", "s3"}))
	require.NoError(t, err)
	assert.Len(t, some, 2)

	none, err := s.Query(ctx, docstore.CollectionQuery("sales"))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStore_PrefixIsolation(t *testing.T) {
	client, _ := setupTestRedis(t)
	a := newTestStore(t, client, "a")
	b := newTestStore(t, client, "b")
	ctx := context.Background()

	_, err := a.Create(ctx, "quotes", map[string]any{"n": 1})
	require.NoError(t, err)

	docs, err := b.Query(ctx, docstore.CollectionQuery("quotes"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

// ---------------------------------------------------------------------------
// Push
// ---------------------------------------------------------------------------

func waitSnapshot(t *testing.T, ch <-chan []docstore.Document, want int) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case docs := <-ch:
			if len(docs) == want {
				return
			}
		case <-deadline:
			t.Fatalf("no snapshot with %d documents", want)
		}
	}
}

func TestStore_LocalWriteRefreshesSubscription(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")

	snapshots := make(chan []docstore.Document, 8)
	unsub := s.SubscribeCollection(docstore.CollectionQuery("quotes"),
		func(docs []docstore.Document) { snapshots <- docs },
		func(err error) { t.Errorf("unexpected error: %v", err) },
	)
	defer unsub()
	waitSnapshot(t, snapshots, 0)

	_, err := s.Create(context.Background(), "quotes", map[string]any{"n": 1})
	require.NoError(t, err)
	waitSnapshot(t, snapshots, 1)
}

func TestStore_ListenerPushesForeignWrites(t *testing.T) {
	client, _ := setupTestRedis(t)
	reader := newTestStore(t, client, "shared")
	writer := newTestStore(t, client, "shared")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reader.Listen(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, reader.listening.Load, 2*time.Second, 10*time.Millisecond)

	snapshots := make(chan []docstore.Document, 8)
	unsub := reader.SubscribeCollection(docstore.CollectionQuery("sales"),
		func(docs []docstore.Document) { snapshots <- docs },
		func(error) {},
	)
	defer unsub()
	waitSnapshot(t, snapshots, 0)

	_, err := writer.Create(context.Background(), "sales", map[string]any{"amount": 5})
	require.NoError(t, err)
	waitSnapshot(t, snapshots, 1)
}

func TestStore_ListenStopsOnCancel(t *testing.T) {
	client, _ := setupTestRedis(t)
	s := newTestStore(t, client, "t")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Listen(ctx) }()
	require.Eventually(t, s.listening.Load, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
	assert.False(t, s.listening.Load())
}
