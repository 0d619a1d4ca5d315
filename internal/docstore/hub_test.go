package docstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fakeSource struct {
	mu       sync.Mutex
	docs     map[string][]Document
	queryErr error
	queries  int
}

func (f *fakeSource) Query(_ context.Context, q Query) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []Document
	for _, d := range f.docs[q.Collection] {
		if q.MatchesRaw(d.Data) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeSource) Lookup(_ context.Context, ref Ref) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs[ref.Collection] {
		if d.ID == ref.ID {
			d := d
			return &d, nil
		}
	}
	return nil, nil
}

func (f *fakeSource) put(collection, id, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = make(map[string][]Document)
	}
	f.docs[collection] = append(f.docs[collection], Document{ID: id, Data: []byte(body)})
}

func newTestHub(t *testing.T, src Source) *Hub {
	t.Helper()
	h := NewHub(src, slog.New(slog.NewTextHandler(io.Discard, nil)), WithFetchTimeout(time.Second))
	t.Cleanup(h.Close)
	return h
}

func ids(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func recvSnapshot(t *testing.T, ch <-chan []Document) []Document {
	t.Helper()
	select {
	case docs := <-ch:
		return docs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHub_InitialSnapshotThenChanges(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	src.put("quotes", "q1", `{"sellerId":"s1"}`)
	h := newTestHub(t, src)

	snaps := make(chan []Document, 4)
	unsub := h.SubscribeCollection(CollectionQuery("quotes"), func(d []Document) { snaps <- d }, func(error) {})
	defer unsub()

	assert.Equal(t, []string{"q1"}, ids(recvSnapshot(t, snaps)))

	src.put("quotes", "q2", `{"sellerId":"s2"}`)
	h.Notify("quotes")
	assert.Equal(t, []string{"q1", "q2"}, ids(recvSnapshot(t, snaps)))
}

func TestHub_EmptyCollectionDeliversEmptySlice(t *testing.T) {
	t.Parallel()

	h := newTestHub(t, &fakeSource{})
	snaps := make(chan []Document, 1)
	unsub := h.SubscribeCollection(CollectionQuery("sales"), func(d []Document) { snaps <- d }, func(error) {})
	defer unsub()

	got := recvSnapshot(t, snaps)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHub_NotifyOnlyAffectsCollection(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	h := newTestHub(t, src)

	quotes := make(chan []Document, 4)
	sales := make(chan []Document, 4)
	defer h.SubscribeCollection(CollectionQuery("quotes"), func(d []Document) { quotes <- d }, func(error) {})()
	defer h.SubscribeCollection(CollectionQuery("sales"), func(d []Document) { sales <- d }, func(error) {})()
	recvSnapshot(t, quotes)
	recvSnapshot(t, sales)

	h.Notify("quotes")
	recvSnapshot(t, quotes)

	select {
	case <-sales:
		t.Fatal("sales subscription must not receive a quotes change")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newTestHub(t, &fakeSource{})
	snaps := make(chan []Document, 4)
	unsub := h.SubscribeCollection(CollectionQuery("quotes"), func(d []Document) { snaps <- d }, func(error) {})
	recvSnapshot(t, snaps)
	require.Equal(t, 1, h.Subscribers())

	unsub()
	unsub()
	assert.Equal(t, 0, h.Subscribers())

	h.Notify("quotes")
	select {
	case <-snaps:
		t.Fatal("delivery after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DocumentSubscription(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	h := newTestHub(t, src)

	docs := make(chan *Document, 4)
	defer h.SubscribeDocument(Ref{Collection: "settings", ID: "followup"}, func(d *Document) { docs <- d }, func(error) {})()

	select {
	case d := <-docs:
		assert.Nil(t, d)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	src.put("settings", "followup", `{"defaultFollowUp":"5"}`)
	h.Notify("settings")

	select {
	case d := <-docs:
		require.NotNil(t, d)
		assert.Equal(t, "followup", d.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestHub_FailAndReadErrorsReachOnError(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	h := newTestHub(t, src)

	snaps := make(chan []Document, 4)
	errs := make(chan error, 4)
	defer h.SubscribeCollection(CollectionQuery("quotes"), func(d []Document) { snaps <- d }, func(err error) { errs <- err })()
	recvSnapshot(t, snaps)

	denied := errors.New("permission denied")
	h.Fail("quotes", denied)
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, denied)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	src.mu.Lock()
	src.queryErr = errors.New("connection lost")
	src.mu.Unlock()
	h.Notify("quotes")
	select {
	case err := <-errs:
		assert.EqualError(t, err, "connection lost")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestHub_SharedQueryIsReadOncePerEvent(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	h := newTestHub(t, src)

	a := make(chan []Document, 4)
	b := make(chan []Document, 4)
	q := CollectionQuery("quotes").Where("sellerId", OpEqual, "s1")
	defer h.SubscribeCollection(q, func(d []Document) { a <- d }, func(error) {})()
	defer h.SubscribeCollection(q, func(d []Document) { b <- d }, func(error) {})()
	recvSnapshot(t, a)
	recvSnapshot(t, b)

	src.mu.Lock()
	before := src.queries
	src.mu.Unlock()

	h.Notify("quotes")
	recvSnapshot(t, a)
	recvSnapshot(t, b)

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, before+1, src.queries)
}

func TestHub_SubscribeAfterClose(t *testing.T) {
	t.Parallel()

	h := NewHub(&fakeSource{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Close()
	h.Close()

	errs := make(chan error, 1)
	unsub := h.SubscribeCollection(CollectionQuery("quotes"), func([]Document) {}, func(err error) { errs <- err })
	unsub()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestHub_InvalidQueryReportsError(t *testing.T) {
	t.Parallel()

	h := newTestHub(t, &fakeSource{})
	errs := make(chan error, 1)
	h.SubscribeCollection(Query{}, func([]Document) {}, func(err error) { errs <- err })

	select {
	case err := <-errs:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
	assert.Equal(t, 0, h.Subscribers())
}
