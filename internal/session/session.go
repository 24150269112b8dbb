// Package session owns the live consultation sub-state: in-call control
// flags and the elapsed-duration counter. A session exists only while
// its booking is in the call state.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned for an unknown or ended session id.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrUnknownAction is returned for an unrecognized in-call action.
	ErrUnknownAction = errors.New("session: unknown action")
)

// In-call actions accepted by Apply.
const (
	ActionMute  = "mute"
	ActionVideo = "video"
	ActionBlur  = "blur"
	ActionLight = "light"
)

// Session tracks one active call. All methods are safe for concurrent
// use; the tick source and HTTP handlers race on the same instance.
type Session struct {
	id        string
	bookingID string
	startedAt time.Time

	mu              sync.Mutex
	elapsedSeconds  int
	muted           bool
	videoOff        bool
	backgroundBlur  bool
	lightCorrection bool

	stopOnce sync.Once
	done     chan struct{}
}

func newSession(bookingID string, startedAt time.Time) *Session {
	return &Session{
		id:        uuid.NewString(),
		bookingID: bookingID,
		startedAt: startedAt,
		done:      make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// BookingID returns the owning booking.
func (s *Session) BookingID() string { return s.bookingID }

// Tick advances the elapsed counter by one second. The counter is
// monotonically non-decreasing for the lifetime of the session.
func (s *Session) Tick() {
	s.mu.Lock()
	s.elapsedSeconds++
	s.mu.Unlock()
}

// ElapsedSeconds returns the seconds elapsed since the call started.
func (s *Session) ElapsedSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedSeconds
}

// FormattedDuration renders the elapsed time as MM:SS. Consultations are
// assumed to stay under an hour ("65:00" would render as-is rather than
// rolling over); this is a known limit, not handled here.
func (s *Session) FormattedDuration() string {
	s.mu.Lock()
	elapsed := s.elapsedSeconds
	s.mu.Unlock()
	return fmt.Sprintf("%02d:%02d", elapsed/60, elapsed%60)
}

// Apply toggles the flag named by action and returns its new state.
func (s *Session) Apply(action string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch action {
	case ActionMute:
		s.muted = !s.muted
		return s.muted, nil
	case ActionVideo:
		s.videoOff = !s.videoOff
		return s.videoOff, nil
	case ActionBlur:
		s.backgroundBlur = !s.backgroundBlur
		return s.backgroundBlur, nil
	case ActionLight:
		s.lightCorrection = !s.lightCorrection
		return s.lightCorrection, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	SessionID       string    `json:"session_id"`
	BookingID       string    `json:"booking_id"`
	StartedAt       time.Time `json:"started_at"`
	ElapsedSeconds  int       `json:"elapsed_seconds"`
	Duration        string    `json:"duration"`
	Muted           bool      `json:"muted"`
	VideoOff        bool      `json:"video_off"`
	BackgroundBlur  bool      `json:"background_blur"`
	LightCorrection bool      `json:"light_correction"`
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:       s.id,
		BookingID:       s.bookingID,
		StartedAt:       s.startedAt,
		ElapsedSeconds:  s.elapsedSeconds,
		Duration:        fmt.Sprintf("%02d:%02d", s.elapsedSeconds/60, s.elapsedSeconds%60),
		Muted:           s.muted,
		VideoOff:        s.videoOff,
		BackgroundBlur:  s.backgroundBlur,
		LightCorrection: s.lightCorrection,
	}
}

// stop terminates the tick source. Safe to call more than once.
func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
