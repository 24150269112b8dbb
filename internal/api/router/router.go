package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/telecare-platform/internal/availability"
	"github.com/wolfman30/telecare-platform/internal/booking"
	"github.com/wolfman30/telecare-platform/internal/directory"
	httpmiddleware "github.com/wolfman30/telecare-platform/internal/http/middleware"
	"github.com/wolfman30/telecare-platform/internal/statefeed"
	"github.com/wolfman30/telecare-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	BookingHandler      *booking.Handler
	DirectoryHandler    *directory.Handler
	AvailabilityHandler *availability.Handler
	Feed                *statefeed.Hub
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// BookingRateLimit caps booking creation per client IP, in
	// requests per second. Zero disables the limiter.
	BookingRateLimit float64
	BookingRateBurst int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/providers", func(r chi.Router) {
		r.Get("/", cfg.DirectoryHandler.ListProviders)
		r.Get("/{providerID}", cfg.DirectoryHandler.GetProvider)
		r.Get("/{providerID}/availability", cfg.AvailabilityHandler.Month)
	})

	r.Route("/bookings", func(r chi.Router) {
		create := r.With()
		if cfg.BookingRateLimit > 0 {
			create = r.With(httpmiddleware.RateLimit(cfg.BookingRateLimit, cfg.BookingRateBurst))
		}
		create.Post("/", cfg.BookingHandler.StartBooking)

		r.Route("/{bookingID}", func(r chi.Router) {
			r.Get("/", cfg.BookingHandler.GetBooking)
			r.Delete("/", cfg.BookingHandler.Cancel)
			r.Post("/slot", cfg.BookingHandler.ChooseSlot)
			r.Post("/checkout", cfg.BookingHandler.Checkout)
			r.Post("/insurance", cfg.BookingHandler.SubmitInsurance)
			r.Post("/payment", cfg.BookingHandler.SubmitPayment)
			r.Post("/call", cfg.BookingHandler.JoinCall)
		})
	})

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", cfg.BookingHandler.GetSession)
		r.Delete("/", cfg.BookingHandler.EndCall)
		r.Post("/actions", cfg.BookingHandler.SessionAction)
	})

	if cfg.Feed != nil {
		r.Get("/ws/bookings", cfg.Feed.HandleWebSocket)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
