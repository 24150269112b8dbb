package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/telecare-platform/pkg/logging"
)

// Handler serves the read-only provider catalog.
type Handler struct {
	dir    Directory
	logger *logging.Logger
}

// NewHandler creates a directory handler.
func NewHandler(dir Directory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{dir: dir, logger: logger}
}

// ListProvidersResponse is the response for listing providers.
type ListProvidersResponse struct {
	Providers []*Provider `json:"providers"`
	Count     int         `json:"count"`
}

// ListProviders handles GET /providers requests.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.dir.ListProviders(r.Context())
	if err != nil {
		h.logger.Error("failed to list providers", "error", err)
		http.Error(w, "failed to list providers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListProvidersResponse{Providers: providers, Count: len(providers)})
}

// GetProvider handles GET /providers/{providerID} requests.
func (h *Handler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "providerID")
	provider, err := h.dir.GetProvider(r.Context(), id)
	if errors.Is(err, ErrProviderNotFound) {
		http.Error(w, "provider not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load provider", "error", err, "provider_id", id)
		http.Error(w, "failed to load provider", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(provider)
}
