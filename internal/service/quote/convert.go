package quote

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
)

// ConvertToSale marks a quote as won and registers the matching sale. The
// quote update, the sale and an audit record are written in one batch.
func (s *Service) ConvertToSale(ctx context.Context, id uuid.UUID, input ConvertInput) (*domain.Sale, error) {
	p, q, err := s.owned(ctx, "convert quote", id)
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if q.SaleID != nil {
		return nil, domain.ErrConflict
	}

	now := s.now()
	amount := q.Amount
	if input.Amount != nil {
		amount = *input.Amount
	}
	saleDate := input.SaleDate
	if saleDate.IsZero() {
		saleDate = followup.Today(now, s.loc)
	}

	sale := domain.Sale{
		ID:             uuid.New(),
		Client:         q.Client,
		Product:        strings.TrimSpace(input.Product),
		Amount:         amount,
		SaleDate:       followup.CalendarDay(saleDate),
		QuoteID:        &id,
		AttachmentPath: q.AttachmentPath,
		Seller:         p.Name,
		SellerID:       p.ID,
		CreatedAt:      now,
	}

	saleFields := docstore.StripUndefined(map[string]any{
		domain.SaleFieldClient:         sale.Client,
		domain.SaleFieldProduct:        sale.Product,
		domain.SaleFieldAmount:         sale.Amount,
		domain.SaleFieldSaleDate:       sale.SaleDate,
		domain.SaleFieldQuoteID:        id.String(),
		domain.SaleFieldAttachmentPath: optional(sale.AttachmentPath),
		domain.SaleFieldSeller:         sale.Seller,
		domain.SaleFieldSellerID:       sale.SellerID.String(),
		domain.SaleFieldCreatedAt:      docstore.ServerTimestamp,
	})
	quoteFields := map[string]any{
		domain.QuoteFieldStatus: domain.QuoteStatusWon,
		domain.QuoteFieldSaleID: sale.ID.String(),
	}
	audit := map[string]any{
		domain.AuditFieldPrincipalID: p.ID.String(),
		domain.AuditFieldEntityType:  domain.EntityTypeQuote,
		domain.AuditFieldEntityID:    id.String(),
		domain.AuditFieldAction:      domain.AuditActionConvert,
		domain.AuditFieldChanges: map[string]any{
			domain.QuoteFieldStatus: map[string]any{"old": q.Status, "new": domain.QuoteStatusWon},
			domain.QuoteFieldSaleID: sale.ID.String(),
		},
		domain.AuditFieldCreatedAt: docstore.ServerTimestamp,
	}

	err = s.store.Batch(ctx, []docstore.Op{
		docstore.UpdateOp(quoteRef(id), quoteFields),
		docstore.CreateOp(docstore.Ref{Collection: domain.CollectionSales, ID: sale.ID.String()}, saleFields),
		docstore.CreateOp(docstore.Ref{Collection: domain.CollectionAudit, ID: docstore.NewID()}, audit),
	})
	if err != nil {
		return nil, &domain.WriteError{Op: "convert quote", ID: id.String(), Err: err}
	}

	s.log.InfoContext(ctx, "quote converted",
		slog.String("quote_id", id.String()),
		slog.String("sale_id", sale.ID.String()),
		slog.String("seller_id", p.ID.String()),
	)
	return &sale, nil
}
