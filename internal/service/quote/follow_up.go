package quote

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
)

// ToggleFollowUpAck acknowledges the current reminder of a quote, or undoes
// the acknowledgement of a finished schedule. Only the changed schedule
// fields are written.
func (s *Service) ToggleFollowUpAck(ctx context.Context, id uuid.UUID) (followup.Schedule, error) {
	p, q, err := s.owned(ctx, "acknowledge follow-up", id)
	if err != nil {
		return followup.Schedule{}, err
	}

	current := ScheduleOf(q)
	if current.Date == nil {
		return current, domain.NewValidationError("followUp", "no follow-up scheduled")
	}
	next := followup.Advance(current, q.ProposalDate)

	fields := map[string]any{}
	if !next.Date.Equal(*current.Date) {
		fields[domain.QuoteFieldFollowUpDate] = *next.Date
	}
	if next.Done != current.Done {
		fields[domain.QuoteFieldFollowUpDone] = next.Done
	}
	if len(fields) == 0 {
		return next, nil
	}

	if err := s.store.UpdateFields(ctx, quoteRef(id), fields); err != nil {
		return current, &domain.WriteError{Op: "acknowledge follow-up", ID: id.String(), Err: err}
	}

	s.log.InfoContext(ctx, "follow-up toggled",
		slog.String("quote_id", id.String()),
		slog.String("seller_id", p.ID.String()),
		slog.Time("follow_up_date", *next.Date),
		slog.Bool("done", next.Done),
	)
	return next, nil
}
