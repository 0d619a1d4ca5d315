package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// QuoteList is the GraphQL form of the quote mirror state.
type QuoteList struct {
	Records   []domain.Quote `json:"records"`
	IsLoading bool           `json:"isLoading"`
	Error     *string        `json:"error,omitempty"`
}

// SaleList is the GraphQL form of the sale mirror state.
type SaleList struct {
	Records   []domain.Sale `json:"records"`
	IsLoading bool          `json:"isLoading"`
	Error     *string       `json:"error,omitempty"`
}

type CreateQuoteInput struct {
	Client         string    `json:"client"`
	Description    *string   `json:"description,omitempty"`
	Amount         float64   `json:"amount"`
	Status         *string   `json:"status,omitempty"`
	ProposalDate   time.Time `json:"proposalDate"`
	FollowUp       *string   `json:"followUp,omitempty"`
	AttachmentPath *string   `json:"attachmentPath,omitempty"`
}

type UpdateQuoteInput struct {
	Client         *string    `json:"client,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Amount         *float64   `json:"amount,omitempty"`
	Status         *string    `json:"status,omitempty"`
	ProposalDate   *time.Time `json:"proposalDate,omitempty"`
	FollowUp       *string    `json:"followUp,omitempty"`
	AttachmentPath *string    `json:"attachmentPath,omitempty"`
}

type ConvertQuoteInput struct {
	Product  string     `json:"product"`
	Amount   *float64   `json:"amount,omitempty"`
	SaleDate *time.Time `json:"saleDate,omitempty"`
}

type CreateSaleInput struct {
	Client         string     `json:"client"`
	Product        string     `json:"product"`
	Amount         float64    `json:"amount"`
	SaleDate       time.Time  `json:"saleDate"`
	QuoteID        *uuid.UUID `json:"quoteId,omitempty"`
	AttachmentPath *string    `json:"attachmentPath,omitempty"`
}

type UpdateSaleInput struct {
	Client         *string    `json:"client,omitempty"`
	Product        *string    `json:"product,omitempty"`
	Amount         *float64   `json:"amount,omitempty"`
	SaleDate       *time.Time `json:"saleDate,omitempty"`
	AttachmentPath *string    `json:"attachmentPath,omitempty"`
}

type UpdateFollowUpSettingsInput struct {
	FollowUpOptions []string `json:"followUpOptions"`
	DefaultFollowUp string   `json:"defaultFollowUp"`
}
