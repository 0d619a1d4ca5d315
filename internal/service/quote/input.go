package quote

import (
	"strings"
	"time"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
)

const (
	maxClientLength      = 200
	maxDescriptionLength = 2000
)

// CreateInput holds the parameters for creating a quote. An empty FollowUp
// uses the configured default offset spec.
type CreateInput struct {
	Client         string
	Description    string
	Amount         float64
	Status         domain.QuoteStatus
	ProposalDate   time.Time
	FollowUp       string
	AttachmentPath string
}

// Validate checks all fields and collects all errors.
func (i *CreateInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.Client) == "" {
		errs = append(errs, domain.FieldError{Field: "client", Message: "required"})
	}
	if len(i.Client) > maxClientLength {
		errs = append(errs, domain.FieldError{Field: "client", Message: "max 200 characters"})
	}
	if len(i.Description) > maxDescriptionLength {
		errs = append(errs, domain.FieldError{Field: "description", Message: "max 2000 characters"})
	}
	if i.Amount < 0 {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "must be non-negative"})
	}
	if i.Status != "" && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be pending, won, or lost"})
	}
	if i.ProposalDate.IsZero() {
		errs = append(errs, domain.FieldError{Field: "proposalDate", Message: "required"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateInput is a partial update. Nil fields are left untouched and never
// sent to the store.
type UpdateInput struct {
	Client         *string
	Description    *string
	Amount         *float64
	Status         *domain.QuoteStatus
	ProposalDate   *time.Time
	FollowUp       *string
	AttachmentPath *string
}

// Validate checks all provided fields and collects all errors.
func (i *UpdateInput) Validate() error {
	var errs []domain.FieldError

	if i.Client != nil {
		if strings.TrimSpace(*i.Client) == "" {
			errs = append(errs, domain.FieldError{Field: "client", Message: "required"})
		} else if len(*i.Client) > maxClientLength {
			errs = append(errs, domain.FieldError{Field: "client", Message: "max 200 characters"})
		}
	}
	if i.Description != nil && len(*i.Description) > maxDescriptionLength {
		errs = append(errs, domain.FieldError{Field: "description", Message: "max 2000 characters"})
	}
	if i.Amount != nil && *i.Amount < 0 {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "must be non-negative"})
	}
	if i.Status != nil && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be pending, won, or lost"})
	}
	if i.ProposalDate != nil && i.ProposalDate.IsZero() {
		errs = append(errs, domain.FieldError{Field: "proposalDate", Message: "required"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// touchesSchedule reports whether the patch changes an input of the schedule.
func (i *UpdateInput) touchesSchedule() bool {
	return i.ProposalDate != nil || i.FollowUp != nil
}

// ConvertInput holds the parameters for turning a won quote into a sale.
// A nil Amount keeps the quote amount; a zero SaleDate means today.
type ConvertInput struct {
	Product  string
	Amount   *float64
	SaleDate time.Time
}

// Validate checks all fields and collects all errors.
func (i *ConvertInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.Product) == "" {
		errs = append(errs, domain.FieldError{Field: "product", Message: "required"})
	}
	if i.Amount != nil && *i.Amount < 0 {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func (s *Service) resolveSpec(spec string) string {
	spec = strings.TrimSpace(spec)
	if spec != "" {
		return spec
	}
	if s.defaults != nil {
		if d := strings.TrimSpace(s.defaults.DefaultFollowUp()); d != "" {
			return d
		}
	}
	return followup.None
}
