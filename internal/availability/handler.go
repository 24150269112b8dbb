package availability

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/telecare-platform/internal/directory"
	"github.com/wolfman30/telecare-platform/pkg/logging"
)

const monthLayout = "2006-01"

// Handler serves provider month availability.
type Handler struct {
	calc   *Calculator
	dir    directory.Directory
	logger *logging.Logger
}

// NewHandler creates an availability handler.
func NewHandler(calc *Calculator, dir directory.Directory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{calc: calc, dir: dir, logger: logger}
}

// MonthResponse is the response for a provider month view.
type MonthResponse struct {
	ProviderID string            `json:"provider_id"`
	Month      string            `json:"month"`
	Days       []DayAvailability `json:"days"`
}

// Month handles GET /providers/{providerID}/availability?month=YYYY-MM.
// The month defaults to the current calendar month.
func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")

	if _, err := h.dir.GetProvider(r.Context(), providerID); err != nil {
		if errors.Is(err, directory.ErrProviderNotFound) {
			http.Error(w, "provider not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load provider", "error", err, "provider_id", providerID)
		http.Error(w, "failed to load provider", http.StatusInternalServerError)
		return
	}

	monthStr := r.URL.Query().Get("month")
	var month time.Time
	if monthStr == "" {
		now := h.calc.now().UTC()
		month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthStr = month.Format(monthLayout)
	} else {
		var err error
		month, err = time.Parse(monthLayout, monthStr)
		if err != nil {
			http.Error(w, "invalid month, expected YYYY-MM", http.StatusBadRequest)
			return
		}
	}

	resp := MonthResponse{
		ProviderID: providerID,
		Month:      monthStr,
		Days:       h.calc.Month(month.Year(), month.Month()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
