package quote

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

// Create stores a new quote owned by the acting principal. The returned
// CreatedAt is a local echo; the authoritative timestamp reaches the mirror
// later.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Quote, error) {
	p, ok := ctxutil.PrincipalFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := domain.AuthorizeCreate("create quote", p); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	spec := s.resolveSpec(input.FollowUp)
	proposal := followup.CalendarDay(input.ProposalDate)
	sched, err := followup.ComputeInitial(proposal, spec)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.QuoteStatusPending
	}

	q := domain.Quote{
		Client:         strings.TrimSpace(input.Client),
		Description:    strings.TrimSpace(input.Description),
		Amount:         input.Amount,
		Status:         status,
		ProposalDate:   proposal,
		FollowUp:       spec,
		AttachmentPath: input.AttachmentPath,
		Seller:         p.Name,
		SellerID:       p.ID,
	}
	applySchedule(&q, sched)

	fields := map[string]any{
		domain.QuoteFieldClient:         q.Client,
		domain.QuoteFieldDescription:    optional(q.Description),
		domain.QuoteFieldAmount:         q.Amount,
		domain.QuoteFieldStatus:         q.Status,
		domain.QuoteFieldProposalDate:   q.ProposalDate,
		domain.QuoteFieldFollowUp:       q.FollowUp,
		domain.QuoteFieldAttachmentPath: optional(q.AttachmentPath),
		domain.QuoteFieldSeller:         q.Seller,
		domain.QuoteFieldSellerID:       q.SellerID.String(),
		domain.QuoteFieldCreatedAt:      docstore.ServerTimestamp,
	}
	for k, v := range scheduleFields(sched, false) {
		fields[k] = v
	}

	id, err := s.store.Create(ctx, domain.CollectionQuotes, docstore.StripUndefined(fields))
	if err != nil {
		return nil, &domain.WriteError{Op: "create quote", Err: err}
	}
	if q.ID, err = uuid.Parse(id); err != nil {
		return nil, &domain.WriteError{Op: "create quote", ID: id, Err: err}
	}
	q.CreatedAt = s.now()

	s.log.InfoContext(ctx, "quote created",
		slog.String("quote_id", id),
		slog.String("seller_id", p.ID.String()),
		slog.String("follow_up", spec),
	)
	return &q, nil
}

// optional maps an empty string to an undefined field.
func optional(v string) any {
	if v == "" {
		return nil
	}
	return v
}
