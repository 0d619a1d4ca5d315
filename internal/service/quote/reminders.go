package quote

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
)

// Reminder is a pending quote whose follow-up needs attention.
type Reminder struct {
	Quote       domain.Quote
	Status      followup.DueStatus
	DaysPending int
}

// DueReminders lists pending quotes with a reminder due today or overdue at
// now, oldest reminder first. sellerID narrows the list unless it is uuid.Nil.
func (s *Service) DueReminders(now time.Time, sellerID uuid.UUID) []Reminder {
	return Reminders(s.quotes.State().Records, now, s.loc, sellerID)
}

// Reminders is the pure form of DueReminders.
func Reminders(quotes []domain.Quote, now time.Time, loc *time.Location, sellerID uuid.UUID) []Reminder {
	out := []Reminder{}
	for _, q := range quotes {
		if q.Status != domain.QuoteStatusPending {
			continue
		}
		if sellerID != uuid.Nil && q.SellerID != sellerID {
			continue
		}
		status := followup.Status(now, ScheduleOf(q), loc)
		if !status.IsActionable() {
			continue
		}
		out = append(out, Reminder{
			Quote:       q,
			Status:      status,
			DaysPending: followup.DaysPending(now, q.ProposalDate, loc),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quote.FollowUpDate.Before(*out[j].Quote.FollowUpDate)
	})
	return out
}
