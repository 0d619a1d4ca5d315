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

// Update applies a partial update to a quote owned by the acting principal.
// When the proposal date or the offset spec changes, the follow-up schedule
// is recomputed from the new values.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) error {
	p, current, err := s.owned(ctx, "update quote", id)
	if err != nil {
		return err
	}
	if err := input.Validate(); err != nil {
		return err
	}

	fields := map[string]any{
		domain.QuoteFieldClient:         trimmed(input.Client),
		domain.QuoteFieldDescription:    input.Description,
		domain.QuoteFieldAmount:         input.Amount,
		domain.QuoteFieldStatus:         input.Status,
		domain.QuoteFieldAttachmentPath: input.AttachmentPath,
	}

	if input.touchesSchedule() {
		proposal := current.ProposalDate
		if input.ProposalDate != nil {
			proposal = followup.CalendarDay(*input.ProposalDate)
			fields[domain.QuoteFieldProposalDate] = proposal
		}
		spec := current.FollowUp
		if input.FollowUp != nil {
			spec = s.resolveSpec(*input.FollowUp)
			fields[domain.QuoteFieldFollowUp] = spec
		}
		sched, err := followup.ComputeInitial(proposal, spec)
		if err != nil {
			return err
		}
		for k, v := range scheduleFields(sched, true) {
			fields[k] = v
		}
	}

	fields = docstore.StripUndefined(fields)
	if len(fields) == 0 {
		return nil
	}

	if err := s.store.UpdateFields(ctx, quoteRef(id), fields); err != nil {
		return &domain.WriteError{Op: "update quote", ID: id.String(), Err: err}
	}

	s.log.InfoContext(ctx, "quote updated",
		slog.String("quote_id", id.String()),
		slog.String("seller_id", p.ID.String()),
		slog.Int("fields", len(fields)),
	)
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
