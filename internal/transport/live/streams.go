package live

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/internal/service/quote"
	"github.com/heartmarshall/salesdesk-backend/internal/service/sale"
)

type quoteRecord struct {
	ID uuid.UUID `json:"id"`
	domain.Quote
	FollowUpStatus followup.DueStatus `json:"followUpStatus"`
}

type saleRecord struct {
	ID uuid.UUID `json:"id"`
	domain.Sale
}

// QuoteStream streams quotes with their follow-up status, classified in loc
// at push time.
func QuoteStream(loc *time.Location, now func() time.Time) Stream[domain.Quote] {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return Stream[domain.Quote]{
		Collection:  domain.CollectionQuotes,
		SellerField: domain.QuoteFieldSellerID,
		Decode:      quote.Decode,
		Render: func(q domain.Quote) any {
			return quoteRecord{ID: q.ID, Quote: q, FollowUpStatus: followup.Status(now(), quote.ScheduleOf(q), loc)}
		},
	}
}

// SaleStream streams sales.
func SaleStream() Stream[domain.Sale] {
	return Stream[domain.Sale]{
		Collection:  domain.CollectionSales,
		SellerField: domain.SaleFieldSellerID,
		Decode:      sale.Decode,
		Render: func(s domain.Sale) any {
			return saleRecord{ID: s.ID, Sale: s}
		},
	}
}
