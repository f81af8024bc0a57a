package session

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// Session is the per-connection state spec.md §3 defines. It is owned
// exclusively by its driver goroutine; nothing else ever reads or writes
// it concurrently.
type Session struct {
	ID           string
	AnalyzerID   string
	RemoteAddr   string
	Conn         net.Conn
	RetryCount   int
	Health       Health
	LastActivity time.Time
}

// New creates a Session for a freshly accepted connection.
func New(analyzerID string, conn net.Conn) *Session {
	return &Session{
		ID:           uuid.NewString(),
		AnalyzerID:   analyzerID,
		RemoteAddr:   conn.RemoteAddr().String(),
		Conn:         conn,
		Health:       Healthy,
		LastActivity: time.Now(),
	}
}

// touch records read/write activity and recomputes Health, per spec.md
// §4.5.
func (s *Session) touch() {
	now := time.Now()
	s.Health = Evaluate(s.RetryCount, s.LastActivity, now)
	s.LastActivity = now
}

// recordRetry increments RetryCount and recomputes Health from it,
// without otherwise moving LastActivity (a malformed frame is still
// activity, but the clock reference point is inactivity, not errors).
func (s *Session) recordRetry() {
	s.RetryCount++
	s.Health = Evaluate(s.RetryCount, s.LastActivity, time.Now())
}

// resetRetries clears RetryCount after a clean transmission, per spec.md
// §4.5 step 3.
func (s *Session) resetRetries() {
	s.RetryCount = 0
	s.Health = Evaluate(s.RetryCount, s.LastActivity, time.Now())
}

// exceededRetries reports whether the session has crossed the
// unrecoverable retry ceiling (spec.md §4.4).
func (s *Session) exceededRetries() bool {
	return s.RetryCount > MaxRetries
}

// deadline computes the next read deadline from the session's current
// health tier.
func (s *Session) deadline() time.Time {
	return time.Now().Add(ReadTimeout(s.Health))
}
