package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

type documentStore interface {
	Get(ctx context.Context, ref docstore.Ref) (*docstore.Document, error)
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	UpdateFields(ctx context.Context, ref docstore.Ref, fields map[string]any) error
	Delete(ctx context.Context, ref docstore.Ref) error
	Batch(ctx context.Context, ops []docstore.Op) error
}

type quoteMirror interface {
	State() mirror.State[domain.Quote]
	Find(id string) (domain.Quote, bool)
}

type attachmentRemover interface {
	Remove(ctx context.Context, path string) error
}

type followUpDefaults interface {
	DefaultFollowUp() string
}

// Decode maps a stored quote document to a domain.Quote.
var Decode = mirror.UUIDDecoder(func(q *domain.Quote, id uuid.UUID) { q.ID = id })

// Service gates quote writes behind ownership checks and keeps the follow-up
// fields consistent with the proposal date and offset spec.
type Service struct {
	store       documentStore
	quotes      quoteMirror
	attachments attachmentRemover
	defaults    followUpDefaults
	loc         *time.Location
	now         func() time.Time
	log         *slog.Logger
}

// NewService creates a quote service. attachments may be nil when no
// attachment storage is configured.
func NewService(
	log *slog.Logger,
	store documentStore,
	quotes quoteMirror,
	attachments attachmentRemover,
	defaults followUpDefaults,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:       store,
		quotes:      quotes,
		attachments: attachments,
		defaults:    defaults,
		loc:         loc,
		now:         time.Now,
		log:         log.With("service", "quote"),
	}
}

// State returns the mirrored quotes.
func (s *Service) State() mirror.State[domain.Quote] {
	return s.quotes.State()
}

// Find returns a mirrored quote by id.
func (s *Service) Find(id uuid.UUID) (domain.Quote, bool) {
	return s.quotes.Find(id.String())
}

func quoteRef(id uuid.UUID) docstore.Ref {
	return docstore.Ref{Collection: domain.CollectionQuotes, ID: id.String()}
}

// lookup returns the quote from the mirror cache, reading the store only when
// the quote is not cached yet.
func (s *Service) lookup(ctx context.Context, id uuid.UUID) (domain.Quote, error) {
	if q, ok := s.quotes.Find(id.String()); ok {
		return q, nil
	}
	doc, err := s.store.Get(ctx, quoteRef(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Quote{}, fmt.Errorf("quote %s: %w", id, domain.ErrNotFound)
		}
		return domain.Quote{}, fmt.Errorf("get quote %s: %w", id, err)
	}
	return Decode(*doc)
}

// FindMany resolves quotes by id for batched reads. Ids missing from both the
// mirror and the store are skipped.
func (s *Service) FindMany(ctx context.Context, ids []uuid.UUID) ([]domain.Quote, error) {
	out := make([]domain.Quote, 0, len(ids))
	for _, id := range ids {
		q, err := s.lookup(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// owned resolves the principal and checks that it owns quote id.
func (s *Service) owned(ctx context.Context, op string, id uuid.UUID) (domain.Principal, domain.Quote, error) {
	p, ok := ctxutil.PrincipalFromCtx(ctx)
	if !ok {
		return domain.Principal{}, domain.Quote{}, domain.ErrUnauthorized
	}
	if id == uuid.Nil {
		return p, domain.Quote{}, domain.NewValidationError("id", "required")
	}
	q, err := s.lookup(ctx, id)
	if err != nil {
		return p, domain.Quote{}, err
	}
	if err := domain.AuthorizeOwner(op, id, p, q.SellerID); err != nil {
		return p, domain.Quote{}, err
	}
	return p, q, nil
}

// ScheduleOf extracts the follow-up schedule embedded in a quote.
func ScheduleOf(q domain.Quote) followup.Schedule {
	return followup.Schedule{Date: q.FollowUpDate, Sequence: q.FollowUpSequence, Done: q.FollowUpDone}
}

func applySchedule(q *domain.Quote, sched followup.Schedule) {
	q.FollowUpDate = sched.Date
	q.FollowUpSequence = sched.Sequence
	q.FollowUpDone = sched.Done
}

// scheduleFields renders a schedule as document fields. On update, absent
// parts are cleared explicitly; on create they are left undefined.
func scheduleFields(sched followup.Schedule, update bool) map[string]any {
	fields := map[string]any{
		domain.QuoteFieldFollowUpDone: sched.Done,
	}
	if sched.Date != nil {
		fields[domain.QuoteFieldFollowUpDate] = *sched.Date
	} else {
		fields[domain.QuoteFieldFollowUpDate] = docstore.Null
	}
	switch {
	case sched.Sequence != nil:
		fields[domain.QuoteFieldFollowUpSequence] = sched.Sequence
	case update:
		fields[domain.QuoteFieldFollowUpSequence] = docstore.Clear
	}
	return fields
}
