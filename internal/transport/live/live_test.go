package live

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore/memstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	testNow   = time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	sellerOne = uuid.MustParse("5e11e7a0-0000-4000-8000-000000000001")
	sellerTwo = uuid.MustParse("5e11e7a0-0000-4000-8000-000000000002")
)

type received struct {
	Seller  string           `json:"seller"`
	Records []map[string]any `json:"records"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error"`
}

// withPrincipal stands in for the auth middleware.
func withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := uuid.Parse(r.URL.Query().Get("as")); err == nil {
			r = r.WithContext(ctxutil.WithPrincipal(r.Context(), domain.Principal{ID: id, Role: domain.RoleSeller}))
		}
		next.ServeHTTP(w, r)
	})
}

func startServer(t *testing.T, store *memstore.Store) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("GET /live/quotes", withPrincipal(Handler(store, QuoteStream(time.UTC, func() time.Time { return testNow }), Options{}, testLogger())))
	mux.Handle("GET /live/sales", withPrincipal(Handler(store, SaleStream(), Options{}, testLogger())))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// readUntil reads state messages until match accepts one.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(received) bool) received {
	t.Helper()
	for {
		var msg received
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if match(msg) {
			return msg
		}
	}
}

func createQuote(t *testing.T, store *memstore.Store, client string, sellerID uuid.UUID, followUp time.Time) string {
	t.Helper()
	id, err := store.Create(context.Background(), domain.CollectionQuotes, map[string]any{
		domain.QuoteFieldClient:       client,
		domain.QuoteFieldStatus:       domain.QuoteStatusPending,
		domain.QuoteFieldProposalDate: followUp.AddDate(0, 0, -3),
		domain.QuoteFieldSellerID:     sellerID.String(),
		domain.QuoteFieldFollowUpDate: followUp,
		domain.QuoteFieldFollowUpDone: false,
	})
	require.NoError(t, err)
	return id
}

func TestLive_StreamsQuotesAndSwitchesSeller(t *testing.T) {
	store := memstore.New(testLogger())
	t.Cleanup(store.Close)
	srv := startServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q1 := createQuote(t, store, "Acme", sellerOne, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC))
	conn := dial(t, ctx, srv, "/live/quotes?as="+sellerOne.String())

	msg := readUntil(t, ctx, conn, func(m received) bool { return !m.Loading && len(m.Records) == 1 })
	assert.Equal(t, q1, msg.Records[0]["id"])
	assert.Equal(t, "due_today", msg.Records[0]["followUpStatus"])

	q2 := createQuote(t, store, "Globex", sellerTwo, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	msg = readUntil(t, ctx, conn, func(m received) bool { return len(m.Records) == 2 })
	assert.Equal(t, q2, msg.Records[1]["id"])
	assert.Equal(t, "upcoming", msg.Records[1]["followUpStatus"])

	malformed := "seller-2"
	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Seller: &malformed}))

	seller := sellerTwo.String()
	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Seller: &seller}))
	msg = readUntil(t, ctx, conn, func(m received) bool {
		return m.Seller == seller && !m.Loading && len(m.Records) == 1
	})
	assert.Equal(t, q2, msg.Records[0]["id"])
	assert.Equal(t, seller, msg.Records[0]["sellerId"])
}

func TestLive_InitialSellerFromQuery(t *testing.T) {
	store := memstore.New(testLogger())
	t.Cleanup(store.Close)
	srv := startServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := store.Create(ctx, domain.CollectionSales, map[string]any{
		domain.SaleFieldClient: "Acme", domain.SaleFieldProduct: "A", domain.SaleFieldSellerID: sellerOne.String(),
	})
	require.NoError(t, err)
	s2, err := store.Create(ctx, domain.CollectionSales, map[string]any{
		domain.SaleFieldClient: "Globex", domain.SaleFieldProduct: "B", domain.SaleFieldSellerID: sellerTwo.String(),
	})
	require.NoError(t, err)

	conn := dial(t, ctx, srv, "/live/sales?as="+sellerOne.String()+"&seller="+sellerTwo.String())
	msg := readUntil(t, ctx, conn, func(m received) bool { return !m.Loading })
	require.Len(t, msg.Records, 1)
	assert.Equal(t, s2, msg.Records[0]["id"])
	assert.Equal(t, "Globex", msg.Records[0]["client"])
}

func TestLive_PushFailureThenRetry(t *testing.T) {
	store := memstore.New(testLogger())
	t.Cleanup(store.Close)
	srv := startServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	createQuote(t, store, "Acme", sellerOne, testNow)
	conn := dial(t, ctx, srv, "/live/quotes?as="+sellerOne.String())
	readUntil(t, ctx, conn, func(m received) bool { return !m.Loading && len(m.Records) == 1 })

	store.InjectError(domain.CollectionQuotes, errors.New("push channel lost"))
	msg := readUntil(t, ctx, conn, func(m received) bool { return m.Error != "" })
	assert.Contains(t, msg.Error, "push channel lost")
	assert.Len(t, msg.Records, 1, "last good records stay visible")

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Retry: true}))
	msg = readUntil(t, ctx, conn, func(m received) bool { return m.Error == "" && !m.Loading })
	assert.Len(t, msg.Records, 1)
}

func TestLive_ClosingConnectionReleasesSubscription(t *testing.T) {
	store := memstore.New(testLogger())
	t.Cleanup(store.Close)
	srv := startServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, srv, "/live/quotes?as="+sellerOne.String())
	readUntil(t, ctx, conn, func(m received) bool { return !m.Loading })
	require.Equal(t, 1, store.Subscribers())

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return store.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLive_RequiresPrincipal(t *testing.T) {
	store := memstore.New(testLogger())
	t.Cleanup(store.Close)
	srv := startServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/quotes"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLive_MalformedSellerRejected(t *testing.T) {
	store := memstore.New(testLogger())
	t.Cleanup(store.Close)
	srv := startServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/quotes?as=" + sellerOne.String() + "&seller=ana"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, store.Subscribers())
}
