package settings

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

type documentStore interface {
	Set(ctx context.Context, ref docstore.Ref, fields map[string]any, merge bool) error
}

type settingsMirror interface {
	State() mirror.DocState[domain.Settings]
}

// Decode maps the stored settings document to domain.Settings.
var Decode = mirror.JSONDecoder(func(s *domain.Settings, id string) { s.ID = id })

// Ref addresses the shared follow-up settings document.
var Ref = docstore.Ref{Collection: domain.CollectionSettings, ID: domain.SettingsFollowUpID}

// Service exposes the follow-up settings document, falling back to the
// configured defaults until the document exists.
type Service struct {
	store    documentStore
	doc      settingsMirror
	fallback domain.Settings
	log      *slog.Logger
}

// NewService creates a settings service.
func NewService(log *slog.Logger, store documentStore, doc settingsMirror, fallback domain.Settings) *Service {
	fallback.ID = domain.SettingsFollowUpID
	return &Service{
		store:    store,
		doc:      doc,
		fallback: fallback,
		log:      log.With("service", "settings"),
	}
}

// Get returns the current settings.
func (s *Service) Get() domain.Settings {
	if rec := s.doc.State().Record; rec != nil {
		return *rec
	}
	return s.fallback
}

// State returns the mirror state of the settings document.
func (s *Service) State() mirror.DocState[domain.Settings] {
	return s.doc.State()
}

// DefaultFollowUp returns the offset spec applied to quotes created without one.
func (s *Service) DefaultFollowUp() string {
	return s.Get().DefaultFollowUp
}

// UpdateInput holds the new follow-up settings.
type UpdateInput struct {
	FollowUpOptions []string
	DefaultFollowUp string
}

// Validate checks every option is a valid offset spec and the default is
// one of the options.
func (i *UpdateInput) Validate() error {
	var errs []domain.FieldError

	if len(i.FollowUpOptions) == 0 {
		errs = append(errs, domain.FieldError{Field: "followUpOptions", Message: "required"})
	}
	for _, opt := range i.FollowUpOptions {
		if err := followup.ValidateSpec(opt); err != nil {
			errs = append(errs, domain.FieldError{Field: "followUpOptions", Message: err.Error()})
		}
	}
	if !slices.Contains(i.FollowUpOptions, i.DefaultFollowUp) {
		errs = append(errs, domain.FieldError{Field: "defaultFollowUp", Message: "must be one of the options"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Update replaces the follow-up settings. Only administrators may do so.
func (s *Service) Update(ctx context.Context, input UpdateInput) (domain.Settings, error) {
	p, ok := ctxutil.PrincipalFromCtx(ctx)
	if !ok {
		return domain.Settings{}, domain.ErrUnauthorized
	}
	if err := domain.AuthorizeAdmin("update settings", p); err != nil {
		return domain.Settings{}, err
	}

	options := make([]string, 0, len(input.FollowUpOptions))
	for _, opt := range input.FollowUpOptions {
		options = append(options, strings.TrimSpace(opt))
	}
	input.FollowUpOptions = options
	input.DefaultFollowUp = strings.TrimSpace(input.DefaultFollowUp)
	if err := input.Validate(); err != nil {
		return domain.Settings{}, err
	}

	fields := map[string]any{
		domain.SettingsFieldFollowUpOptions: input.FollowUpOptions,
		domain.SettingsFieldDefaultFollowUp: input.DefaultFollowUp,
		domain.SettingsFieldUpdatedBy:       p.ID.String(),
	}
	if err := s.store.Set(ctx, Ref, fields, true); err != nil {
		return domain.Settings{}, &domain.WriteError{Op: "update settings", ID: Ref.ID, Err: err}
	}

	s.log.InfoContext(ctx, "follow-up settings updated",
		slog.String("principal_id", p.ID.String()),
		slog.String("default", input.DefaultFollowUp),
	)
	return domain.Settings{
		ID:              Ref.ID,
		FollowUpOptions: input.FollowUpOptions,
		DefaultFollowUp: input.DefaultFollowUp,
		UpdatedBy:       &p.ID,
	}, nil
}
