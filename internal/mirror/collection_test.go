package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore/memstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type item struct {
	ID   string `json:"-"`
	Name string `json:"name"`
}

func (i item) RecordID() string { return i.ID }

var decodeItem = JSONDecoder(func(i *item, id string) { i.ID = id })

type fakeSub struct {
	query     docstore.Query
	ref       docstore.Ref
	onSnap    func([]docstore.Document)
	onDoc     func(*docstore.Document)
	onErr     func(error)
	cancelled int
}

// fakeSource hands subscriptions to the test, which pushes into them
// synchronously.
type fakeSource struct {
	mu   sync.Mutex
	subs []*fakeSub
}

func (f *fakeSource) SubscribeCollection(q docstore.Query, onSnapshot func([]docstore.Document), onError func(error)) docstore.Unsubscribe {
	sub := &fakeSub{query: q, onSnap: onSnapshot, onErr: onError}
	return f.add(sub)
}

func (f *fakeSource) SubscribeDocument(ref docstore.Ref, onSnapshot func(*docstore.Document), onError func(error)) docstore.Unsubscribe {
	sub := &fakeSub{ref: ref, onDoc: onSnapshot, onErr: onError}
	return f.add(sub)
}

func (f *fakeSource) add(sub *fakeSub) docstore.Unsubscribe {
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		sub.cancelled++
		f.mu.Unlock()
	}
}

func (f *fakeSource) sub(i int) *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[i]
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeSource) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		if s.cancelled == 0 {
			n++
		}
	}
	return n
}

func (f *fakeSource) cancelCount(i int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[i].cancelled
}

func docs(names ...string) []docstore.Document {
	out := make([]docstore.Document, 0, len(names))
	for i, n := range names {
		out = append(out, docstore.Document{ID: fmt.Sprintf("id-%s-%d", n, i), Data: []byte(`{"name":"` + n + `"}`)})
	}
	return out
}

func names(records []item) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func queryFor(seller string) *docstore.Query {
	q := docstore.CollectionQuery("quotes").Where("sellerId", docstore.OpEqual, seller)
	return &q
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCollection_NilQueryIsEmptyAndIdle(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)
	m.SetQuery(nil)

	st := m.State()
	assert.NotNil(t, st.Records)
	assert.Empty(t, st.Records)
	assert.False(t, st.Loading)
	assert.NoError(t, st.Err)
	assert.Equal(t, 0, src.count())
}

func TestCollection_EveryPushReplacesRecords(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)
	m.SetQuery(queryFor("s1"))

	st := m.State()
	assert.True(t, st.Loading)
	assert.Empty(t, st.Records)
	require.Equal(t, 1, src.count())

	pushes := [][]docstore.Document{
		docs("a"),
		docs("a", "b"),
		docs("c", "a", "b"),
		docs(),
		docs("z"),
	}
	for n, snapshot := range pushes {
		src.sub(0).onSnap(snapshot)

		st := m.State()
		require.False(t, st.Loading)
		require.Len(t, st.Records, len(snapshot), "after push %d", n+1)
		for i, d := range snapshot {
			assert.Equal(t, d.ID, st.Records[i].ID, "after push %d", n+1)
		}
	}
}

func TestCollection_EquivalentQueryDoesNotResubscribe(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)

	m.SetQuery(queryFor("s1"))
	m.SetQuery(queryFor("s1"))

	assert.Equal(t, 1, src.count())
	assert.Equal(t, 0, src.cancelCount(0))
}

func TestCollection_SwitchingKeepsOneActiveListener(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)

	m.SetQuery(queryFor("s1"))
	m.SetQuery(queryFor("s2"))
	m.SetQuery(queryFor("s3"))

	require.Equal(t, 3, src.count())
	assert.Equal(t, 1, src.active())
	assert.Equal(t, 1, src.cancelCount(0))
	assert.Equal(t, 1, src.cancelCount(1))
	assert.Equal(t, 0, src.cancelCount(2))

	// Late callbacks from superseded targets are never applied.
	src.sub(0).onSnap(docs("stale"))
	src.sub(1).onErr(errors.New("stale failure"))
	st := m.State()
	assert.True(t, st.Loading)
	assert.Empty(t, st.Records)
	assert.NoError(t, st.Err)

	src.sub(2).onSnap(docs("fresh"))
	assert.Equal(t, []string{"fresh"}, names(m.State().Records))

	key, ok := m.Key()
	assert.True(t, ok)
	assert.Equal(t, queryFor("s3").Key(), key)
}

func TestCollection_SwitchClearsRecordsAndError(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)
	m.SetQuery(queryFor("s1"))
	src.sub(0).onSnap(docs("a"))
	src.sub(0).onErr(errors.New("network"))

	m.SetQuery(queryFor("s2"))

	st := m.State()
	assert.True(t, st.Loading)
	assert.Empty(t, st.Records)
	assert.NoError(t, st.Err)
}

func TestCollection_SwitchToNilCancels(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)
	m.SetQuery(queryFor("s1"))
	src.sub(0).onSnap(docs("a"))

	m.SetQuery(nil)

	assert.Equal(t, 0, src.active())
	st := m.State()
	assert.Empty(t, st.Records)
	assert.False(t, st.Loading)

	_, ok := m.Key()
	assert.False(t, ok)
}

func TestCollection_ErrorKeepsStaleRecords(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)
	m.SetQuery(queryFor("s1"))
	src.sub(0).onSnap(docs("a", "b"))

	denied := errors.New("permission denied")
	src.sub(0).onErr(denied)

	st := m.State()
	assert.Equal(t, []string{"a", "b"}, names(st.Records))
	assert.False(t, st.Loading)
	require.Error(t, st.Err)
	assert.ErrorIs(t, st.Err, domain.ErrSubscription)
	assert.ErrorIs(t, st.Err, denied)

	src.sub(0).onSnap(docs("c"))
	st = m.State()
	assert.NoError(t, st.Err)
	assert.Equal(t, []string{"c"}, names(st.Records))
}

func TestCollection_DecodeFailureRejectsWholePush(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)
	m.SetQuery(queryFor("s1"))
	src.sub(0).onSnap(docs("a"))

	bad := append(docs("b"), docstore.Document{ID: "broken", Data: []byte(`{"name":`)})
	src.sub(0).onSnap(bad)

	st := m.State()
	assert.Equal(t, []string{"a"}, names(st.Records))
	require.Error(t, st.Err)
	var serr *domain.SubscriptionError
	require.ErrorAs(t, st.Err, &serr)
	assert.Equal(t, queryFor("s1").Key(), serr.Target)
}

func TestUUIDDecoder(t *testing.T) {
	t.Parallel()

	type keyed struct {
		ID   uuid.UUID `json:"-"`
		Name string    `json:"name"`
	}
	decode := UUIDDecoder(func(k *keyed, id uuid.UUID) { k.ID = id })

	id := uuid.New()
	got, err := decode(docstore.Document{ID: id.String(), Data: []byte(`{"name":"a"}`)})
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "a", got.Name)

	_, err = decode(docstore.Document{ID: "not-a-uuid", Data: []byte(`{"name":"a"}`)})
	assert.Error(t, err)
}

func TestCollection_Retry(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)
	m.SetQuery(queryFor("s1"))
	src.sub(0).onSnap(docs("a"))
	src.sub(0).onErr(errors.New("network"))

	m.Retry()

	require.Equal(t, 2, src.count())
	assert.Equal(t, 1, src.cancelCount(0))
	assert.Equal(t, 1, src.active())
	st := m.State()
	assert.True(t, st.Loading)
	assert.NoError(t, st.Err)
	assert.Equal(t, []string{"a"}, names(st.Records))

	src.sub(1).onSnap(docs("a", "b"))
	assert.Equal(t, []string{"a", "b"}, names(m.State().Records))
}

func TestCollection_RetryWithoutTargetIsNoop(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)
	m.Retry()

	assert.Equal(t, 0, src.count())
}

func TestCollection_CloseCancelsExactlyOnce(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)
	m.SetQuery(queryFor("s1"))
	src.sub(0).onSnap(docs("a"))

	m.Close()
	m.Close()
	m.SetQuery(queryFor("s2"))
	src.sub(0).onSnap(docs("late"))

	assert.Equal(t, 1, src.count())
	assert.Equal(t, 1, src.cancelCount(0))
	assert.Equal(t, []string{"a"}, names(m.State().Records))
}

func TestCollection_FindAndOnChange(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	m := NewCollection[item](src, decodeItem)

	var seen []State[item]
	cancel := m.OnChange(func(st State[item]) { seen = append(seen, st) })

	m.SetQuery(queryFor("s1"))
	snapshot := docs("a", "b")
	src.sub(0).onSnap(snapshot)

	got, ok := m.Find(snapshot[1].ID)
	require.True(t, ok)
	assert.Equal(t, "b", got.Name)
	_, ok = m.Find("missing")
	assert.False(t, ok)

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.Equal(t, []string{"a", "b"}, names(seen[1].Records))

	cancel()
	src.sub(0).onSnap(docs("c"))
	assert.Len(t, seen, 2)
}

func TestCollection_WithMemStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memstore.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(store.Close)

	m := NewCollection[item](store, decodeItem)
	t.Cleanup(m.Close)

	changes := make(chan State[item], 16)
	m.OnChange(func(st State[item]) { changes <- st })

	q := docstore.CollectionQuery("items")
	m.SetQuery(&q)

	waitFor := func(want []string) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case st := <-changes:
				if !st.Loading && assert.ObjectsAreEqual(want, names(st.Records)) {
					return
				}
			case <-deadline:
				t.Fatalf("mirror never reached %v, last state %v", want, names(m.State().Records))
			}
		}
	}
	waitFor([]string{})

	_, err := store.Create(ctx, "items", map[string]any{"name": "first"})
	require.NoError(t, err)
	waitFor([]string{"first"})

	_, err = store.Create(ctx, "items", map[string]any{"name": "second"})
	require.NoError(t, err)
	waitFor([]string{"first", "second"})

	m.SetQuery(nil)
	assert.Equal(t, 0, store.Subscribers())
}
