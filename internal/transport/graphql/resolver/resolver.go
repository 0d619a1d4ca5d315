package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/internal/service/quote"
	"github.com/heartmarshall/salesdesk-backend/internal/service/sale"
	"github.com/heartmarshall/salesdesk-backend/internal/service/settings"
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

// quoteService defines what resolver needs from the quote service.
type quoteService interface {
	State() mirror.State[domain.Quote]
	Find(id uuid.UUID) (domain.Quote, bool)
	Create(ctx context.Context, input quote.CreateInput) (*domain.Quote, error)
	Update(ctx context.Context, id uuid.UUID, input quote.UpdateInput) error
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleFollowUpAck(ctx context.Context, id uuid.UUID) (followup.Schedule, error)
	ConvertToSale(ctx context.Context, id uuid.UUID, input quote.ConvertInput) (*domain.Sale, error)
	DueReminders(now time.Time, sellerID uuid.UUID) []quote.Reminder
}

// saleService defines what resolver needs from the sale service.
type saleService interface {
	State() mirror.State[domain.Sale]
	Find(id uuid.UUID) (domain.Sale, bool)
	Create(ctx context.Context, input sale.CreateInput) (*domain.Sale, error)
	Update(ctx context.Context, id uuid.UUID, input sale.UpdateInput) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// settingsService defines what resolver needs from the settings service.
type settingsService interface {
	Get() domain.Settings
	Update(ctx context.Context, input settings.UpdateInput) (domain.Settings, error)
}

// Resolver is the root resolver containing all service dependencies.
type Resolver struct {
	quotes   quoteService
	sales    saleService
	settings settingsService
	loc      *time.Location
	now      func() time.Time
	log      *slog.Logger
}

// NewResolver creates a new Resolver. loc is the business timezone used to
// classify follow-up reminders.
func NewResolver(
	log *slog.Logger,
	quotes quoteService,
	sales saleService,
	settings settingsService,
	loc *time.Location,
) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		quotes:   quotes,
		sales:    sales,
		settings: settings,
		loc:      loc,
		now:      time.Now,
		log:      log.With("component", "graphql"),
	}
}

// requirePrincipal rejects anonymous reads; writes are gated by the services.
func requirePrincipal(ctx context.Context) error {
	if _, ok := ctxutil.PrincipalFromCtx(ctx); !ok {
		return domain.ErrUnauthorized
	}
	return nil
}

func errString(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}

func sellerFilter(seller *uuid.UUID) uuid.UUID {
	if seller == nil {
		return uuid.Nil
	}
	return *seller
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
