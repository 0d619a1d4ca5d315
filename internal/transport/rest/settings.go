package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/internal/service/settings"
)

type settingsService interface {
	Get() domain.Settings
	State() mirror.DocState[domain.Settings]
	Update(ctx context.Context, input settings.UpdateInput) (domain.Settings, error)
}

// SettingsHandler serves the shared follow-up settings.
type SettingsHandler struct {
	svc settingsService
	log *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(svc settingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, log: logger.With("handler", "settings")}
}

// Routes registers the settings endpoints on mux.
func (h *SettingsHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /settings/followup", h.Get)
	mux.HandleFunc("PUT /settings/followup", h.Update)
}

type settingsResponse struct {
	FollowUpOptions []string   `json:"followUpOptions"`
	DefaultFollowUp string     `json:"defaultFollowUp"`
	UpdatedBy       *uuid.UUID `json:"updatedBy,omitempty"`
	Loading         bool       `json:"loading"`
	Error           string     `json:"error,omitempty"`
}

// Get returns the effective follow-up settings. Configured defaults apply
// until the settings document exists.
// GET /settings/followup
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !requirePrincipal(w, r) {
		return
	}
	s := h.svc.Get()
	state := h.svc.State()
	writeJSON(w, http.StatusOK, settingsResponse{
		FollowUpOptions: nonNil(s.FollowUpOptions),
		DefaultFollowUp: s.DefaultFollowUp,
		UpdatedBy:       s.UpdatedBy,
		Loading:         state.Loading,
		Error:           errString(state.Err),
	})
}

type updateSettingsRequest struct {
	FollowUpOptions []string `json:"followUpOptions"`
	DefaultFollowUp string   `json:"defaultFollowUp"`
}

// Update replaces the follow-up settings. Administrators only.
// PUT /settings/followup
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	s, err := h.svc.Update(r.Context(), settings.UpdateInput{
		FollowUpOptions: req.FollowUpOptions,
		DefaultFollowUp: req.DefaultFollowUp,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		FollowUpOptions: nonNil(s.FollowUpOptions),
		DefaultFollowUp: s.DefaultFollowUp,
		UpdatedBy:       s.UpdatedBy,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
