package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore/memstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

func init() {
	color.NoColor = true
}

var (
	today     = time.Date(2024, 1, 12, 15, 0, 0, 0, time.UTC)
	sellerOne = uuid.MustParse("5e11e7a0-0000-4000-8000-000000000001")
	sellerTwo = uuid.MustParse("5e11e7a0-0000-4000-8000-000000000002")

	sellerNames = map[uuid.UUID]string{sellerOne: "Ana", sellerTwo: "Ben"}
)

func seedQuote(t *testing.T, store *memstore.Store, client string, sellerID uuid.UUID, status domain.QuoteStatus, followUp time.Time, done bool) {
	t.Helper()
	_, err := store.Create(context.Background(), domain.CollectionQuotes, map[string]any{
		domain.QuoteFieldClient:       client,
		domain.QuoteFieldAmount:       1250.5,
		domain.QuoteFieldStatus:       status,
		domain.QuoteFieldProposalDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		domain.QuoteFieldSeller:       sellerNames[sellerID],
		domain.QuoteFieldSellerID:     sellerID.String(),
		domain.QuoteFieldFollowUpDate: followUp,
		domain.QuoteFieldFollowUpDone: done,
	})
	require.NoError(t, err)
}

func newSeededStore(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(store.Close)

	seedQuote(t, store, "Overdue Co", sellerOne, domain.QuoteStatusPending, today.AddDate(0, 0, -2), false)
	seedQuote(t, store, "Today Co", sellerTwo, domain.QuoteStatusPending, today, false)
	seedQuote(t, store, "Later Co", sellerOne, domain.QuoteStatusPending, today.AddDate(0, 0, 3), false)
	seedQuote(t, store, "Done Co", sellerOne, domain.QuoteStatusPending, today.AddDate(0, 0, -1), true)
	seedQuote(t, store, "Won Co", sellerOne, domain.QuoteStatusWon, today.AddDate(0, 0, -5), false)
	return store
}

func TestRunDue_ListsActionableReminders(t *testing.T) {
	store := newSeededStore(t)

	var out bytes.Buffer
	err := RunDue(context.Background(), &out, store, DueOptions{At: today, Loc: time.UTC})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Overdue Co")
	assert.Contains(t, text, "Today Co")
	assert.NotContains(t, text, "Later Co")
	assert.NotContains(t, text, "Done Co")
	assert.NotContains(t, text, "Won Co")
	assert.Contains(t, text, "2 follow-up(s) due")

	// Oldest reminder first.
	assert.Less(t, strings.Index(text, "Overdue Co"), strings.Index(text, "Today Co"))
	assert.Contains(t, text, "OVERDUE")
	assert.Contains(t, text, "DUE TODAY")
	assert.Contains(t, text, "10 days pending")
	assert.Contains(t, text, "Ana, 10 days pending")
}

func TestRunDue_FiltersBySeller(t *testing.T) {
	store := newSeededStore(t)

	var out bytes.Buffer
	err := RunDue(context.Background(), &out, store, DueOptions{Seller: sellerTwo, At: today, Loc: time.UTC})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Today Co")
	assert.NotContains(t, out.String(), "Overdue Co")
	assert.Contains(t, out.String(), "1 follow-up(s) due")
}

func TestRunDue_NothingDue(t *testing.T) {
	store := memstore.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(store.Close)

	var out bytes.Buffer
	require.NoError(t, RunDue(context.Background(), &out, store, DueOptions{At: today, Loc: time.UTC}))
	assert.Equal(t, "No follow-ups due.\n", out.String())
}

type failingSource struct{ err error }

func (f failingSource) SubscribeCollection(_ docstore.Query, _ func([]docstore.Document), onError func(error)) docstore.Unsubscribe {
	go onError(f.err)
	return func() {}
}

func TestRunDue_SubscriptionError(t *testing.T) {
	boom := errors.New("push channel down")

	err := RunDue(context.Background(), io.Discard, failingSource{err: boom}, DueOptions{At: today, Loc: time.UTC})
	assert.ErrorIs(t, err, boom)
}

type silentSource struct{}

func (silentSource) SubscribeCollection(docstore.Query, func([]docstore.Document), func(error)) docstore.Unsubscribe {
	return func() {}
}

func TestRunDue_GivesUpWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := RunDue(ctx, io.Discard, silentSource{}, DueOptions{At: today, Loc: time.UTC})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVersionCmd(t *testing.T) {
	cmd := VersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, strings.TrimSpace(out.String()))
}
