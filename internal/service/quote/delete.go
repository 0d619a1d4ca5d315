package quote

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// Delete removes a quote owned by the acting principal. Its attachment is
// removed first unless the sale converted from the quote still references
// it; a failed attachment removal is logged and does not block the record
// deletion.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, q, err := s.owned(ctx, "delete quote", id)
	if err != nil {
		return err
	}

	if q.AttachmentPath != "" && s.attachments != nil {
		s.removeAttachment(ctx, q)
	}

	if err := s.store.Delete(ctx, quoteRef(id)); err != nil {
		return &domain.WriteError{Op: "delete quote", ID: id.String(), Err: err}
	}

	s.log.InfoContext(ctx, "quote deleted",
		slog.String("quote_id", id.String()),
		slog.String("seller_id", p.ID.String()),
	)
	return nil
}

func (s *Service) removeAttachment(ctx context.Context, q domain.Quote) {
	if q.SaleID != nil {
		ref := docstore.Ref{Collection: domain.CollectionSales, ID: q.SaleID.String()}
		shared, err := referencesAttachment(ctx, s.store, ref, q.AttachmentPath)
		if err != nil || shared {
			s.log.InfoContext(ctx, "quote attachment kept",
				slog.String("quote_id", q.ID.String()),
				slog.String("sale_id", q.SaleID.String()),
				slog.String("path", q.AttachmentPath),
			)
			return
		}
	}

	if err := s.attachments.Remove(ctx, q.AttachmentPath); err != nil {
		s.log.WarnContext(ctx, "quote attachment removal failed",
			slog.String("quote_id", q.ID.String()),
			slog.String("path", q.AttachmentPath),
			slog.String("error", err.Error()),
		)
	}
}

// referencesAttachment reports whether the document at ref still exists and
// points at path. An error other than not-found is returned as is.
func referencesAttachment(ctx context.Context, store documentStore, ref docstore.Ref, path string) (bool, error) {
	doc, err := store.Get(ctx, ref)
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
