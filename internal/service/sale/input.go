package sale

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// CreateInput holds the parameters for registering a sale.
type CreateInput struct {
	Client         string
	Product        string
	Amount         float64
	SaleDate       time.Time
	QuoteID        *uuid.UUID
	AttachmentPath string
}

// Validate checks all fields and collects all errors.
func (i *CreateInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.Client) == "" {
		errs = append(errs, domain.FieldError{Field: "client", Message: "required"})
	}
	if strings.TrimSpace(i.Product) == "" {
		errs = append(errs, domain.FieldError{Field: "product", Message: "required"})
	}
	if i.Amount < 0 {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "must be non-negative"})
	}
	if i.SaleDate.IsZero() {
		errs = append(errs, domain.FieldError{Field: "saleDate", Message: "required"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateInput is a partial update. Nil fields are never sent to the store.
type UpdateInput struct {
	Client         *string
	Product        *string
	Amount         *float64
	SaleDate       *time.Time
	AttachmentPath *string
}

// Validate checks all provided fields and collects all errors.
func (i *UpdateInput) Validate() error {
	var errs []domain.FieldError

	if i.Client != nil && strings.TrimSpace(*i.Client) == "" {
		errs = append(errs, domain.FieldError{Field: "client", Message: "required"})
	}
	if i.Product != nil && strings.TrimSpace(*i.Product) == "" {
		errs = append(errs, domain.FieldError{Field: "product", Message: "required"})
	}
	if i.Amount != nil && *i.Amount < 0 {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "must be non-negative"})
	}
	if i.SaleDate != nil && i.SaleDate.IsZero() {
		errs = append(errs, domain.FieldError{Field: "saleDate", Message: "required"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
