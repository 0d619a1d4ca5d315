package domain

import (
	"time"

	"github.com/google/uuid"
)

// Quote is a commercial proposal sent to a client. The follow-up fields are
// derived by the scheduler from ProposalDate and FollowUp and are never
// written directly by callers.
type Quote struct {
	ID             uuid.UUID   `json:"-"`
	Client         string      `json:"client"`
	Description    string      `json:"description,omitempty"`
	Amount         float64     `json:"amount"`
	Status         QuoteStatus `json:"status"`
	ProposalDate   time.Time   `json:"proposalDate"`
	FollowUp       string      `json:"followUp"`
	AttachmentPath string      `json:"attachmentPath,omitempty"`
	SaleID         *uuid.UUID  `json:"saleId,omitempty"`
	Seller         string      `json:"seller"`
	SellerID       uuid.UUID   `json:"sellerId"`
	CreatedAt      time.Time   `json:"createdAt"`

	FollowUpDate     *time.Time `json:"followUpDate"`
	FollowUpSequence []int      `json:"followUpSequence,omitempty"`
	FollowUpDone     bool       `json:"followUpDone"`
}

// RecordID returns the store-assigned document id.
func (q Quote) RecordID() string { return q.ID.String() }

// OwnerID returns the id of the seller who created the quote.
func (q Quote) OwnerID() uuid.UUID { return q.SellerID }

// HasFollowUp reports whether a reminder is scheduled at all.
func (q Quote) HasFollowUp() bool { return q.FollowUpDate != nil }

// Quote document field names.
const (
	QuoteFieldClient           = "client"
	QuoteFieldDescription      = "description"
	QuoteFieldAmount           = "amount"
	QuoteFieldStatus           = "status"
	QuoteFieldProposalDate     = "proposalDate"
	QuoteFieldFollowUp         = "followUp"
	QuoteFieldAttachmentPath   = "attachmentPath"
	QuoteFieldSaleID           = "saleId"
	QuoteFieldSeller           = "seller"
	QuoteFieldSellerID         = "sellerId"
	QuoteFieldCreatedAt        = "createdAt"
	QuoteFieldFollowUpDate     = "followUpDate"
	QuoteFieldFollowUpSequence = "followUpSequence"
	QuoteFieldFollowUpDone     = "followUpDone"
)
