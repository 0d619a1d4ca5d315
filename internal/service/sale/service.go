package sale

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
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

type documentStore interface {
	Get(ctx context.Context, ref docstore.Ref) (*docstore.Document, error)
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	UpdateFields(ctx context.Context, ref docstore.Ref, fields map[string]any) error
	Delete(ctx context.Context, ref docstore.Ref) error
}

type saleMirror interface {
	State() mirror.State[domain.Sale]
	Find(id string) (domain.Sale, bool)
}

type attachmentRemover interface {
	Remove(ctx context.Context, path string) error
}

// Decode maps a stored sale document to a domain.Sale.
var Decode = mirror.UUIDDecoder(func(s *domain.Sale, id uuid.UUID) { s.ID = id })

// Service gates sale writes behind ownership checks.
type Service struct {
	store       documentStore
	sales       saleMirror
	attachments attachmentRemover
	now         func() time.Time
	log         *slog.Logger
}

// NewService creates a sale service. attachments may be nil.
func NewService(
	log *slog.Logger,
	store documentStore,
	sales saleMirror,
	attachments attachmentRemover,
) *Service {
	return &Service{
		store:       store,
		sales:       sales,
		attachments: attachments,
		now:         time.Now,
		log:         log.With("service", "sale"),
	}
}

// State returns the mirrored sales.
func (s *Service) State() mirror.State[domain.Sale] {
	return s.sales.State()
}

// Find returns a mirrored sale by id.
func (s *Service) Find(id uuid.UUID) (domain.Sale, bool) {
	return s.sales.Find(id.String())
}

func saleRef(id uuid.UUID) docstore.Ref {
	return docstore.Ref{Collection: domain.CollectionSales, ID: id.String()}
}

func (s *Service) lookup(ctx context.Context, id uuid.UUID) (domain.Sale, error) {
	if sale, ok := s.sales.Find(id.String()); ok {
		return sale, nil
	}
	doc, err := s.store.Get(ctx, saleRef(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Sale{}, fmt.Errorf("sale %s: %w", id, domain.ErrNotFound)
		}
		return domain.Sale{}, fmt.Errorf("get sale %s: %w", id, err)
	}
	return Decode(*doc)
}

func (s *Service) owned(ctx context.Context, op string, id uuid.UUID) (domain.Principal, domain.Sale, error) {
	p, ok := ctxutil.PrincipalFromCtx(ctx)
	if !ok {
		return domain.Principal{}, domain.Sale{}, domain.ErrUnauthorized
	}
	if id == uuid.Nil {
		return p, domain.Sale{}, domain.NewValidationError("id", "required")
	}
	sale, err := s.lookup(ctx, id)
	if err != nil {
		return p, domain.Sale{}, err
	}
	if err := domain.AuthorizeOwner(op, id, p, sale.SellerID); err != nil {
		return p, domain.Sale{}, err
	}
	return p, sale, nil
}
