// Package statefeed pushes booking state snapshots to the presentation
// layer over WebSocket. The engine owns no rendering; consumers simply
// re-render from each snapshot.
package statefeed

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/telecare-platform/pkg/logging"
)

// BookingSnapshot is the serialized view pushed after every booking or
// session mutation.
type BookingSnapshot struct {
	BookingID       string    `json:"booking_id"`
	State           string    `json:"state"`
	ProviderID      string    `json:"provider_id"`
	Date            string    `json:"date,omitempty"`
	TimeLabel       string    `json:"time_label,omitempty"`
	InsuranceStatus string    `json:"insurance_status"`
	TotalDueCents   int64     `json:"total_due_cents"`
	SessionID       string    `json:"session_id,omitempty"`
	ElapsedSeconds  int       `json:"elapsed_seconds"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan BookingSnapshot
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// Hub fans booking snapshots out to WebSocket subscribers keyed by
// booking id.
type Hub struct {
	logger *logging.Logger

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub creates a snapshot hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// Publish delivers the snapshot to every subscriber of its booking.
// Slow consumers are skipped rather than blocking the state machine.
func (h *Hub) Publish(snap BookingSnapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[snap.BookingID] {
		select {
		case sub.send <- snap:
		default:
		}
	}
}

// SubscriberCount returns the subscriber count for a booking.
func (h *Hub) SubscriberCount(bookingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[bookingID])
}

// HandleWebSocket upgrades GET /ws/bookings?booking=<id> and streams
// snapshots until the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serve(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Hub) serve(conn *websocket.Conn, r *http.Request) {
	bookingID := r.URL.Query().Get("booking")
	if bookingID == "" {
		_ = websocket.JSON.Send(conn, map[string]string{"error": "missing booking parameter"})
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan BookingSnapshot, 16),
		done: make(chan struct{}),
	}
	h.add(bookingID, sub)
	defer h.remove(bookingID, sub)

	h.logger.Info("statefeed subscriber connected", "booking_id", bookingID)

	// Reader goroutine: we expect no client messages, but a read loop is
	// how we learn about disconnects.
	go func() {
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				sub.close()
				return
			}
		}
	}()

	for {
		select {
		case <-sub.done:
			return
		case snap := <-sub.send:
			if err := websocket.JSON.Send(conn, snap); err != nil {
				h.logger.Info("statefeed subscriber dropped", "booking_id", bookingID, "error", err)
				return
			}
		}
	}
}

func (h *Hub) add(bookingID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[bookingID] == nil {
		h.subs[bookingID] = make(map[*subscriber]struct{})
	}
	h.subs[bookingID][sub] = struct{}{}
}

func (h *Hub) remove(bookingID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[bookingID], sub)
	if len(h.subs[bookingID]) == 0 {
		delete(h.subs, bookingID)
	}
}
