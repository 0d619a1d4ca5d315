package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sale is a closed deal, optionally converted from a won quote.
type Sale struct {
	ID             uuid.UUID  `json:"-"`
	Client         string     `json:"client"`
	Product        string     `json:"product"`
	Amount         float64    `json:"amount"`
	SaleDate       time.Time  `json:"saleDate"`
	QuoteID        *uuid.UUID `json:"quoteId,omitempty"`
	AttachmentPath string     `json:"attachmentPath,omitempty"`
	Seller         string     `json:"seller"`
	SellerID       uuid.UUID  `json:"sellerId"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// RecordID returns the store-assigned document id.
func (s Sale) RecordID() string { return s.ID.String() }

// OwnerID returns the id of the seller who registered the sale.
func (s Sale) OwnerID() uuid.UUID { return s.SellerID }

// Sale document field names.
const (
	SaleFieldClient         = "client"
	SaleFieldProduct        = "product"
	SaleFieldAmount         = "amount"
	SaleFieldSaleDate       = "saleDate"
	SaleFieldQuoteID        = "quoteId"
	SaleFieldAttachmentPath = "attachmentPath"
	SaleFieldSeller         = "seller"
	SaleFieldSellerID       = "sellerId"
	SaleFieldCreatedAt      = "createdAt"
)
