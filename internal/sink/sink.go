// Package sink provides a reference EventSink — the stand-in SPEC_FULL.md
// §3 names for the desktop-shell UI sink spec.md §1 excludes from scope.
// It satisfies eventbus.Sink so it can subscribe to the same bus the HIS
// client does, and records events as JSON lines to an io.Writer. Grounded
// on teacher's handleMessage/logging shape (driver/hl7/server.go logs
// every inbound message) generalized from log lines to a structured,
// appendable record.
package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/AireshBhat/nramh-lis/internal/eventbus"
)

// record is the on-disk shape of one logged event.
type record struct {
	At         time.Time             `json:"at"`
	Kind       eventbus.EventKind    `json:"kind"`
	AnalyzerID string                `json:"analyzer_id,omitempty"`
	SessionID  string                `json:"session_id,omitempty"`
	RemoteAddr string                `json:"remote_addr,omitempty"`
	Status     string                `json:"status,omitempty"`
	Patient    *eventbus.PatientPayload `json:"patient,omitempty"`
	Results    []eventbus.ResultPayload `json:"results,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// JSONLineSink appends one JSON object per line for every DomainEvent it
// receives. Safe for concurrent use; writes are serialized.
type JSONLineSink struct {
	mu sync.Mutex
	w  io.Writer
}

// New constructs a JSONLineSink writing to w.
func New(w io.Writer) *JSONLineSink {
	return &JSONLineSink{w: w}
}

// Publish implements eventbus.Sink. It never reports failure: a write
// error here must not cause the bus to treat the underlying analyzer
// connection as unhealthy, since this sink's only job is best-effort
// UI/audit visibility.
func (s *JSONLineSink) Publish(ctx context.Context, event eventbus.DomainEvent) bool {
	rec := record{
		At:         time.Now(),
		Kind:       event.Kind,
		AnalyzerID: event.AnalyzerID,
		SessionID:  event.SessionID,
		RemoteAddr: event.RemoteAddr,
		Status:     event.Status,
		Patient:    event.Patient,
		Results:    event.Results,
	}
	if event.Err != nil {
		rec.Error = event.Err.Error()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return true
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(data)
	return true
}
