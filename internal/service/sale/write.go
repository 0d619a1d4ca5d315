package sale

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

// Create registers a sale owned by the acting principal.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Sale, error) {
	p, ok := ctxutil.PrincipalFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := domain.AuthorizeCreate("create sale", p); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	sale := domain.Sale{
		Client:         strings.TrimSpace(input.Client),
		Product:        strings.TrimSpace(input.Product),
		Amount:         input.Amount,
		SaleDate:       followup.CalendarDay(input.SaleDate),
		QuoteID:        input.QuoteID,
		AttachmentPath: input.AttachmentPath,
		Seller:         p.Name,
		SellerID:       p.ID,
	}

	var quoteID any
	if sale.QuoteID != nil {
		quoteID = sale.QuoteID.String()
	}
	fields := docstore.StripUndefined(map[string]any{
		domain.SaleFieldClient:         sale.Client,
		domain.SaleFieldProduct:        sale.Product,
		domain.SaleFieldAmount:         sale.Amount,
		domain.SaleFieldSaleDate:       sale.SaleDate,
		domain.SaleFieldQuoteID:        quoteID,
		domain.SaleFieldAttachmentPath: optional(sale.AttachmentPath),
		domain.SaleFieldSeller:         sale.Seller,
		domain.SaleFieldSellerID:       sale.SellerID.String(),
		domain.SaleFieldCreatedAt:      docstore.ServerTimestamp,
	})

	id, err := s.store.Create(ctx, domain.CollectionSales, fields)
	if err != nil {
		return nil, &domain.WriteError{Op: "create sale", Err: err}
	}
	if sale.ID, err = uuid.Parse(id); err != nil {
		return nil, &domain.WriteError{Op: "create sale", ID: id, Err: err}
	}
	sale.CreatedAt = s.now()

	s.log.InfoContext(ctx, "sale created",
		slog.String("sale_id", id),
		slog.String("seller_id", p.ID.String()),
	)
	return &sale, nil
}

// Update applies a partial update to a sale owned by the acting principal.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) error {
	p, _, err := s.owned(ctx, "update sale", id)
	if err != nil {
		return err
	}
	if err := input.Validate(); err != nil {
		return err
	}

	var saleDate any
	if input.SaleDate != nil {
		saleDate = followup.CalendarDay(*input.SaleDate)
	}
	fields := docstore.StripUndefined(map[string]any{
		domain.SaleFieldClient:         input.Client,
		domain.SaleFieldProduct:        input.Product,
		domain.SaleFieldAmount:         input.Amount,
		domain.SaleFieldSaleDate:       saleDate,
		domain.SaleFieldAttachmentPath: input.AttachmentPath,
	})
	if len(fields) == 0 {
		return nil
	}

	if err := s.store.UpdateFields(ctx, saleRef(id), fields); err != nil {
		return &domain.WriteError{Op: "update sale", ID: id.String(), Err: err}
	}

	s.log.InfoContext(ctx, "sale updated",
		slog.String("sale_id", id.String()),
		slog.String("seller_id", p.ID.String()),
		slog.Int("fields", len(fields)),
	)
	return nil
}

// Delete removes a sale owned by the acting principal, attachment first.
// An attachment still referenced by the source quote is kept.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, sale, err := s.owned(ctx, "delete sale", id)
	if err != nil {
		return err
	}

	if sale.AttachmentPath != "" && s.attachments != nil {
		s.removeAttachment(ctx, sale)
	}

	if err := s.store.Delete(ctx, saleRef(id)); err != nil {
		return &domain.WriteError{Op: "delete sale", ID: id.String(), Err: err}
	}

	s.log.InfoContext(ctx, "sale deleted",
		slog.String("sale_id", id.String()),
		slog.String("seller_id", p.ID.String()),
	)
	return nil
}

func (s *Service) removeAttachment(ctx context.Context, sale domain.Sale) {
	if sale.QuoteID != nil {
		ref := docstore.Ref{Collection: domain.CollectionQuotes, ID: sale.QuoteID.String()}
		shared, err := s.quoteHoldsAttachment(ctx, ref, sale.AttachmentPath)
		if err != nil || shared {
			s.log.InfoContext(ctx, "sale attachment kept",
				slog.String("sale_id", sale.ID.String()),
				slog.String("quote_id", sale.QuoteID.String()),
				slog.String("path", sale.AttachmentPath),
			)
			return
		}
	}

	if err := s.attachments.Remove(ctx, sale.AttachmentPath); err != nil {
		s.log.WarnContext(ctx, "sale attachment removal failed",
			slog.String("sale_id", sale.ID.String()),
			slog.String("path", sale.AttachmentPath),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) quoteHoldsAttachment(ctx context.Context, ref docstore.Ref, path string) (bool, error) {
	doc, err := s.store.Get(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var linked struct {
		AttachmentPath string `json:"attachmentPath"`
	}
	if err := doc.Decode(&linked); err != nil {
		return false, err
	}
	return linked.AttachmentPath == path, nil
}

func optional(v string) any {
	if v == "" {
		return nil
	}
	return v
}
