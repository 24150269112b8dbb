package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/telecare-platform/internal/directory"
	"github.com/wolfman30/telecare-platform/internal/insurance"
	"github.com/wolfman30/telecare-platform/internal/session"
	"github.com/wolfman30/telecare-platform/pkg/logging"
)

// Handler exposes the booking lifecycle and the in-call session
// controls over HTTP. Call termination lives here rather than with the
// session manager because ending a call is a booking transition.
type Handler struct {
	svc      *Service
	sessions *session.Manager
	logger   *logging.Logger
}

// NewHandler creates a booking handler.
func NewHandler(svc *Service, sessions *session.Manager, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

// StartBookingRequest is the body for POST /bookings.
type StartBookingRequest struct {
	CallerID    string `json:"caller_id"`
	CallerName  string `json:"caller_name,omitempty"`
	CallerEmail string `json:"caller_email,omitempty"`
	ProviderID  string `json:"provider_id"`
}

// ChooseSlotRequest is the body for POST /bookings/{bookingID}/slot.
type ChooseSlotRequest struct {
	Date      string `json:"date"`
	TimeLabel string `json:"time_label,omitempty"`
}

// InsuranceRequest is the body for POST /bookings/{bookingID}/insurance.
type InsuranceRequest struct {
	PayerName string `json:"payer_name"`
	MemberID  string `json:"member_id"`
}

// PaymentRequest is the body for POST /bookings/{bookingID}/payment.
type PaymentRequest struct {
	TokenID string `json:"token_id"`
}

// SessionActionRequest is the body for POST /sessions/{sessionID}/actions.
type SessionActionRequest struct {
	Action string `json:"action"`
}

// JoinCallResponse pairs the booking with its live session.
type JoinCallResponse struct {
	Booking View             `json:"booking"`
	Session session.Snapshot `json:"session"`
}

// StartBooking handles POST /bookings.
func (h *Handler) StartBooking(w http.ResponseWriter, r *http.Request) {
	var req StartBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	view, err := h.svc.StartBooking(r.Context(), StartInput{
		CallerID:    req.CallerID,
		CallerName:  req.CallerName,
		CallerEmail: req.CallerEmail,
		ProviderID:  req.ProviderID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, view)
}

// GetBooking handles GET /bookings/{bookingID}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetBooking(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// ChooseSlot handles POST /bookings/{bookingID}/slot.
func (h *Handler) ChooseSlot(w http.ResponseWriter, r *http.Request) {
	var req ChooseSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	view, err := h.svc.ChooseSlot(r.Context(), chi.URLParam(r, "bookingID"), req.Date, req.TimeLabel)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// Checkout handles POST /bookings/{bookingID}/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.ProceedToPayment(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// SubmitInsurance handles POST /bookings/{bookingID}/insurance. The
// eligibility check runs asynchronously; the response reports pending.
func (h *Handler) SubmitInsurance(w http.ResponseWriter, r *http.Request) {
	var req InsuranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	view, err := h.svc.SubmitInsurance(r.Context(), chi.URLParam(r, "bookingID"), req.PayerName, req.MemberID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, view)
}

// SubmitPayment handles POST /bookings/{bookingID}/payment.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	view, err := h.svc.SubmitPayment(r.Context(), chi.URLParam(r, "bookingID"), req.TokenID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// JoinCall handles POST /bookings/{bookingID}/call.
func (h *Handler) JoinCall(w http.ResponseWriter, r *http.Request) {
	view, sess, err := h.svc.JoinCall(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, JoinCallResponse{Booking: view, Session: sess.Snapshot()})
}

// Cancel handles DELETE /bookings/{bookingID}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// GetSession handles GET /sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess.Snapshot())
}

// SessionAction handles POST /sessions/{sessionID}/actions, toggling an
// in-call control (mute, video, blur, light correction).
func (h *Handler) SessionAction(w http.ResponseWriter, r *http.Request) {
	var req SessionActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	sess, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := sess.Apply(req.Action); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess.Snapshot())
}

// EndCall handles DELETE /sessions/{sessionID}. Safe to call more than
// once for the same session.
func (h *Handler) EndCall(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.EndCallBySession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ite *InvalidTransitionError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrBookingNotFound),
		errors.Is(err, directory.ErrProviderNotFound),
		errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrSlotConflict),
		errors.Is(err, ErrActiveBookingInProgress),
		errors.Is(err, ErrPaymentInProgress):
		status = http.StatusConflict
	case errors.Is(err, ErrIncompleteSelection):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrPaymentDeclined):
		status = http.StatusPaymentRequired
	case errors.Is(err, ErrInvalidSelection),
		errors.Is(err, insurance.ErrInvalidInput),
		errors.Is(err, session.ErrUnknownAction):
		status = http.StatusBadRequest
	case errors.As(err, &ite):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("booking request failed", "error", err)
		http.Error(w, "internal error", status)
		return
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
