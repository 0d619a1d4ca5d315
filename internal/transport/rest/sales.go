package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/internal/service/sale"
)

type saleService interface {
	State() mirror.State[domain.Sale]
	Create(ctx context.Context, input sale.CreateInput) (*domain.Sale, error)
	Update(ctx context.Context, id uuid.UUID, input sale.UpdateInput) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SaleHandler serves the sale endpoints.
type SaleHandler struct {
	svc saleService
	log *slog.Logger
}

// NewSaleHandler creates a SaleHandler.
func NewSaleHandler(svc saleService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{svc: svc, log: logger.With("handler", "sale")}
}

// Routes registers the sale endpoints on mux.
func (h *SaleHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /sales", h.List)
	mux.HandleFunc("POST /sales", h.Create)
	mux.HandleFunc("PATCH /sales/{id}", h.Update)
	mux.HandleFunc("DELETE /sales/{id}", h.Delete)
}

type saleResponse struct {
	ID uuid.UUID `json:"id"`
	domain.Sale
}

// List returns the mirrored sales.
// GET /sales?seller=<id>
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requirePrincipal(w, r) {
		return
	}
	seller, err := sellerParam(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	state := h.svc.State()

	resp := stateResponse[saleResponse]{
		Records: make([]saleResponse, 0, len(state.Records)),
		Loading: state.Loading,
		Error:   errString(state.Err),
	}
	for _, s := range state.Records {
		if seller != uuid.Nil && s.SellerID != seller {
			continue
		}
		resp.Records = append(resp.Records, saleResponse{ID: s.ID, Sale: s})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createSaleRequest struct {
	Client         string     `json:"client"`
	Product        string     `json:"product"`
	Amount         float64    `json:"amount"`
	SaleDate       Date       `json:"saleDate"`
	QuoteID        *uuid.UUID `json:"quoteId"`
	AttachmentPath string     `json:"attachmentPath"`
}

// Create handles POST /sales.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	s, err := h.svc.Create(r.Context(), sale.CreateInput{
		Client:         req.Client,
		Product:        req.Product,
		Amount:         req.Amount,
		SaleDate:       req.SaleDate.Time,
		QuoteID:        req.QuoteID,
		AttachmentPath: req.AttachmentPath,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saleResponse{ID: s.ID, Sale: *s})
}

type updateSaleRequest struct {
	Client         *string  `json:"client"`
	Product        *string  `json:"product"`
	Amount         *float64 `json:"amount"`
	SaleDate       *Date    `json:"saleDate"`
	AttachmentPath *string  `json:"attachmentPath"`
}

// Update handles PATCH /sales/{id}.
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateSaleRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	input := sale.UpdateInput{
		Client:         req.Client,
		Product:        req.Product,
		Amount:         req.Amount,
		AttachmentPath: req.AttachmentPath,
	}
	if req.SaleDate != nil {
		input.SaleDate = &req.SaleDate.Time
	}

	if err := h.svc.Update(r.Context(), id, input); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /sales/{id}.
func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
