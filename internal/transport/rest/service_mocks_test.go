package rest

import (
	"context"
	"sync"
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
	CreateFunc            func(ctx context.Context, input quote.CreateInput) (*domain.Quote, error)
	UpdateFunc            func(ctx context.Context, id uuid.UUID, input quote.UpdateInput) error
	DeleteFunc            func(ctx context.Context, id uuid.UUID) error
	ToggleFollowUpAckFunc func(ctx context.Context, id uuid.UUID) (followup.Schedule, error)
	ConvertToSaleFunc     func(ctx context.Context, id uuid.UUID, input quote.ConvertInput) (*domain.Sale, error)
	DueRemindersFunc      func(now time.Time, sellerID uuid.UUID) []quote.Reminder

	mu    sync.Mutex
	calls []string
}

func (m *quoteServiceMock) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *quoteServiceMock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *quoteServiceMock) State() mirror.State[domain.Quote] {
	m.record("State")
	return m.StateFunc()
}

func (m *quoteServiceMock) Create(ctx context.Context, input quote.CreateInput) (*domain.Quote, error) {
	m.record("Create")
	return m.CreateFunc(ctx, input)
}

func (m *quoteServiceMock) Update(ctx context.Context, id uuid.UUID, input quote.UpdateInput) error {
	m.record("Update")
	return m.UpdateFunc(ctx, id, input)
}

func (m *quoteServiceMock) Delete(ctx context.Context, id uuid.UUID) error {
	m.record("Delete")
	return m.DeleteFunc(ctx, id)
}

func (m *quoteServiceMock) ToggleFollowUpAck(ctx context.Context, id uuid.UUID) (followup.Schedule, error) {
	m.record("ToggleFollowUpAck")
	return m.ToggleFollowUpAckFunc(ctx, id)
}

func (m *quoteServiceMock) ConvertToSale(ctx context.Context, id uuid.UUID, input quote.ConvertInput) (*domain.Sale, error) {
	m.record("ConvertToSale")
	return m.ConvertToSaleFunc(ctx, id, input)
}

func (m *quoteServiceMock) DueReminders(now time.Time, sellerID uuid.UUID) []quote.Reminder {
	m.record("DueReminders")
	return m.DueRemindersFunc(now, sellerID)
}

type saleServiceMock struct {
	StateFunc  func() mirror.State[domain.Sale]
	CreateFunc func(ctx context.Context, input sale.CreateInput) (*domain.Sale, error)
	UpdateFunc func(ctx context.Context, id uuid.UUID, input sale.UpdateInput) error
	DeleteFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *saleServiceMock) State() mirror.State[domain.Sale] { return m.StateFunc() }

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
	StateFunc  func() mirror.DocState[domain.Settings]
	UpdateFunc func(ctx context.Context, input settings.UpdateInput) (domain.Settings, error)
}

func (m *settingsServiceMock) Get() domain.Settings { return m.GetFunc() }

func (m *settingsServiceMock) State() mirror.DocState[domain.Settings] { return m.StateFunc() }

func (m *settingsServiceMock) Update(ctx context.Context, input settings.UpdateInput) (domain.Settings, error) {
	return m.UpdateFunc(ctx, input)
}
