package resolver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/internal/service/quote"
	"github.com/heartmarshall/salesdesk-backend/internal/service/sale"
	"github.com/heartmarshall/salesdesk-backend/internal/service/settings"
)

var (
	_ quoteService    = &quoteServiceMock{}
	_ saleService     = &saleServiceMock{}
	_ settingsService = &settingsServiceMock{}
)

type quoteServiceMock struct {
	StateFunc             func() mirror.State[domain.Quote]
	FindFunc              func(id uuid.UUID) (domain.Quote, bool)
	CreateFunc            func(ctx context.Context, input quote.CreateInput) (*domain.Quote, error)
	UpdateFunc            func(ctx context.Context, id uuid.UUID, input quote.UpdateInput) error
	DeleteFunc            func(ctx context.Context, id uuid.UUID) error
	ToggleFollowUpAckFunc func(ctx context.Context, id uuid.UUID) (followup.Schedule, error)
	ConvertToSaleFunc     func(ctx context.Context, id uuid.UUID, input quote.ConvertInput) (*domain.Sale, error)
	DueRemindersFunc      func(now time.Time, sellerID uuid.UUID) []quote.Reminder
}

func (m *quoteServiceMock) State() mirror.State[domain.Quote] { return m.StateFunc() }

func (m *quoteServiceMock) Find(id uuid.UUID) (domain.Quote, bool) { return m.FindFunc(id) }

func (m *quoteServiceMock) Create(ctx context.Context, input quote.CreateInput) (*domain.Quote, error) {
	return m.CreateFunc(ctx, input)
}

func (m *quoteServiceMock) Update(ctx context.Context, id uuid.UUID, input quote.UpdateInput) error {
	return m.UpdateFunc(ctx, id, input)
}

func (m *quoteServiceMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

func (m *quoteServiceMock) ToggleFollowUpAck(ctx context.Context, id uuid.UUID) (followup.Schedule, error) {
	return m.ToggleFollowUpAckFunc(ctx, id)
}

func (m *quoteServiceMock) ConvertToSale(ctx context.Context, id uuid.UUID, input quote.ConvertInput) (*domain.Sale, error) {
	return m.ConvertToSaleFunc(ctx, id, input)
}

func (m *quoteServiceMock) DueReminders(now time.Time, sellerID uuid.UUID) []quote.Reminder {
	return m.DueRemindersFunc(now, sellerID)
}

type saleServiceMock struct {
	StateFunc  func() mirror.State[domain.Sale]
	FindFunc   func(id uuid.UUID) (domain.Sale, bool)
	CreateFunc func(ctx context.Context, input sale.CreateInput) (*domain.Sale, error)
	UpdateFunc func(ctx context.Context, id uuid.UUID, input sale.UpdateInput) error
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *saleServiceMock) State() mirror.State[domain.Sale] { return m.StateFunc() }

func (m *saleServiceMock) Find(id uuid.UUID) (domain.Sale, bool) { return m.FindFunc(id) }

func (m *saleServiceMock) Create(ctx context.Context, input sale.CreateInput) (*domain.Sale, error) {
	return m.CreateFunc(ctx, input)
}

func (m *saleServiceMock) Update(ctx context.Context, id uuid.UUID, input sale.UpdateInput) error {
	return m.UpdateFunc(ctx, id, input)
}

func (m *saleServiceMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

type settingsServiceMock struct {
	GetFunc    func() domain.Settings
	UpdateFunc func(ctx context.Context, input settings.UpdateInput) (domain.Settings, error)
}

func (m *settingsServiceMock) Get() domain.Settings { return m.GetFunc() }

func (m *settingsServiceMock) Update(ctx context.Context, input settings.UpdateInput) (domain.Settings, error) {
	return m.UpdateFunc(ctx, input)
}
