package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/internal/service/quote"
)

type quoteService interface {
	State() mirror.State[domain.Quote]
	Create(ctx context.Context, input quote.CreateInput) (*domain.Quote, error)
	Update(ctx context.Context, id uuid.UUID, input quote.UpdateInput) error
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleFollowUpAck(ctx context.Context, id uuid.UUID) (followup.Schedule, error)
	ConvertToSale(ctx context.Context, id uuid.UUID, input quote.ConvertInput) (*domain.Sale, error)
	DueReminders(now time.Time, sellerID uuid.UUID) []quote.Reminder
}

// QuoteHandler serves the quote endpoints. Reads come from the live mirror.
type QuoteHandler struct {
	svc quoteService
	loc *time.Location
	now func() time.Time
	log *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler. loc is the business timezone used
// to classify reminders.
func NewQuoteHandler(svc quoteService, loc *time.Location, logger *slog.Logger) *QuoteHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &QuoteHandler{svc: svc, loc: loc, now: time.Now, log: logger.With("handler", "quote")}
}

// Routes registers the quote endpoints on mux.
func (h *QuoteHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /quotes", h.List)
	mux.HandleFunc("POST /quotes", h.Create)
	mux.HandleFunc("GET /quotes/reminders", h.Reminders)
	mux.HandleFunc("PATCH /quotes/{id}", h.Update)
	mux.HandleFunc("DELETE /quotes/{id}", h.Delete)
	mux.HandleFunc("POST /quotes/{id}/follow-up/ack", h.ToggleFollowUp)
	mux.HandleFunc("POST /quotes/{id}/convert", h.Convert)
}

type quoteResponse struct {
	ID uuid.UUID `json:"id"`
	domain.Quote
	FollowUpStatus followup.DueStatus `json:"followUpStatus"`
}

func (h *QuoteHandler) toResponse(q domain.Quote, now time.Time) quoteResponse {
	return quoteResponse{
		ID:             q.ID,
		Quote:          q,
		FollowUpStatus: followup.Status(now, quote.ScheduleOf(q), h.loc),
	}
}

// List returns the mirrored quotes.
// GET /quotes?seller=<id>
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requirePrincipal(w, r) {
		return
	}
	seller, err := sellerParam(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	state := h.svc.State()
	now := h.now()

	resp := stateResponse[quoteResponse]{
		Records: make([]quoteResponse, 0, len(state.Records)),
		Loading: state.Loading,
		Error:   errString(state.Err),
	}
	for _, q := range state.Records {
		if seller != uuid.Nil && q.SellerID != seller {
			continue
		}
		resp.Records = append(resp.Records, h.toResponse(q, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createQuoteRequest struct {
	Client         string             `json:"client"`
	Description    string             `json:"description"`
	Amount         float64            `json:"amount"`
	Status         domain.QuoteStatus `json:"status"`
	ProposalDate   Date               `json:"proposalDate"`
	FollowUp       string             `json:"followUp"`
	AttachmentPath string             `json:"attachmentPath"`
}

// Create handles POST /quotes.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	q, err := h.svc.Create(r.Context(), quote.CreateInput{
		Client:         req.Client,
		Description:    req.Description,
		Amount:         req.Amount,
		Status:         req.Status,
		ProposalDate:   req.ProposalDate.Time,
		FollowUp:       req.FollowUp,
		AttachmentPath: req.AttachmentPath,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(*q, h.now()))
}

type updateQuoteRequest struct {
	Client         *string             `json:"client"`
	Description    *string             `json:"description"`
	Amount         *float64            `json:"amount"`
	Status         *domain.QuoteStatus `json:"status"`
	ProposalDate   *Date               `json:"proposalDate"`
	FollowUp       *string             `json:"followUp"`
	AttachmentPath *string             `json:"attachmentPath"`
}

// Update handles PATCH /quotes/{id}. Absent fields are left untouched.
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateQuoteRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	input := quote.UpdateInput{
		Client:         req.Client,
		Description:    req.Description,
		Amount:         req.Amount,
		Status:         req.Status,
		FollowUp:       req.FollowUp,
		AttachmentPath: req.AttachmentPath,
	}
	if req.ProposalDate != nil {
		input.ProposalDate = &req.ProposalDate.Time
	}

	if err := h.svc.Update(r.Context(), id, input); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /quotes/{id}.
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

type scheduleResponse struct {
	FollowUpDate     *time.Time         `json:"followUpDate"`
	FollowUpSequence []int              `json:"followUpSequence,omitempty"`
	FollowUpDone     bool               `json:"followUpDone"`
	FollowUpStatus   followup.DueStatus `json:"followUpStatus"`
}

// ToggleFollowUp handles POST /quotes/{id}/follow-up/ack.
func (h *QuoteHandler) ToggleFollowUp(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	sched, err := h.svc.ToggleFollowUpAck(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{
		FollowUpDate:     sched.Date,
		FollowUpSequence: sched.Sequence,
		FollowUpDone:     sched.Done,
		FollowUpStatus:   followup.Status(h.now(), sched, h.loc),
	})
}

type convertQuoteRequest struct {
	Product  string   `json:"product"`
	Amount   *float64 `json:"amount"`
	SaleDate Date     `json:"saleDate"`
}

// Convert handles POST /quotes/{id}/convert.
func (h *QuoteHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req convertQuoteRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	sale, err := h.svc.ConvertToSale(r.Context(), id, quote.ConvertInput{
		Product:  req.Product,
		Amount:   req.Amount,
		SaleDate: req.SaleDate.Time,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saleResponse{ID: sale.ID, Sale: *sale})
}

type reminderResponse struct {
	Quote       quoteResponse      `json:"quote"`
	Status      followup.DueStatus `json:"status"`
	DaysPending int                `json:"daysPending"`
}

// Reminders lists quotes whose follow-up is due today or overdue.
// GET /quotes/reminders?seller=<id>
func (h *QuoteHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	if !requirePrincipal(w, r) {
		return
	}
	seller, err := sellerParam(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	now := h.now()
	reminders := h.svc.DueReminders(now, seller)

	resp := make([]reminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		resp = append(resp, reminderResponse{
			Quote:       h.toResponse(rem.Quote, now),
			Status:      rem.Status,
			DaysPending: rem.DaysPending,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
