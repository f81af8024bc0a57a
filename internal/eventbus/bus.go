// Package eventbus implements the bounded fan-out channel coupling a
// session driver to the HIS delivery client and any UI sink (spec.md §4.9).
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AireshBhat/nramh-lis/internal/record"
)

// EventKind tags the variant of DomainEvent carried, per spec.md §3.
type EventKind string

const (
	AnalyzerConnected    EventKind = "AnalyzerConnected"
	AnalyzerDisconnected EventKind = "AnalyzerDisconnected"
	WireMessageReceived  EventKind = "WireMessageReceived"
	ResultsProcessed     EventKind = "ResultsProcessed"
	StatusChanged        EventKind = "StatusChanged"
	ErrorEvent           EventKind = "Error"
)

// DomainEvent is the tagged union spec.md §3 defines. Only the fields
// relevant to Kind are meaningful; the rest stay zero-valued.
type DomainEvent struct {
	Kind       EventKind
	AnalyzerID string
	SessionID  string
	RemoteAddr string

	WireMessageKind string // "ASTM" or "HL7", set for WireMessageReceived
	RawMessage      []byte // set for WireMessageReceived

	Patient *PatientPayload
	Results []ResultPayload

	Status string // set for StatusChanged
	Err    error  // set for ErrorEvent
}

// PatientPayload and ResultPayload carry the full record.PatientRecord
// and record.TestResult a session driver computed, rather than a
// thinned subset of it — a UI sink, the HIS client, or a future storage
// consumer all need fields (BirthDate, ReferenceRange, Status, and so
// on) that a hand-picked projection would have discarded before the
// event ever reached the bus. internal/record never imports this
// package, so embedding its types here does not create a cycle.
type PatientPayload struct {
	record.PatientRecord
}

type ResultPayload struct {
	record.TestResult
}

// Sink is the consumer-facing interface spec.md §6 names: an async
// publish function returning success or drop. Both the HIS delivery
// client and any UI sink implement this.
type Sink interface {
	Publish(ctx context.Context, event DomainEvent) bool
}

// Bus is a multi-consumer bounded fan-out channel. One Bus is shared by
// the supervisor and every analyzer service it creates, so all sessions of
// all analyzers publish into the same channel. Modeled on the
// teacher's HL7Server.messageChan + processMessages goroutine, generalized
// from one internal consumer to an arbitrary registered consumer list.
type Bus struct {
	events chan DomainEvent
	logger *slog.Logger

	mu        sync.RWMutex
	consumers []Sink

	stop chan struct{}
	done chan struct{}
}

// DefaultBufferSize is the minimum buffer spec.md §4.9 requires.
const DefaultBufferSize = 100

// New creates a Bus with the given buffer size (clamped up to
// DefaultBufferSize) and starts its dispatch goroutine.
func New(bufferSize int, logger *slog.Logger) *Bus {
	if bufferSize < DefaultBufferSize {
		bufferSize = DefaultBufferSize
	}
	b := &Bus{
		events: make(chan DomainEvent, bufferSize),
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// Subscribe registers a consumer. Not safe to call concurrently with
// Publish from the same goroutine that holds no other lock; in practice
// consumers are wired once at service start.
func (b *Bus) Subscribe(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumers = append(b.consumers, sink)
}

// Publish enqueues event for dispatch. It blocks until the channel has
// room (spec.md §4.9's back-pressure policy); PublishTimeout bounds that
// wait with a context instead.
func (b *Bus) Publish(event DomainEvent) {
	b.events <- event
}

// PublishTimeout enqueues event, returning false if it could not be
// enqueued before ctx is done. The session drivers do not call it: they
// use Publish, so a full channel blocks them and does not change session
// health.
func (b *Bus) PublishTimeout(ctx context.Context, event DomainEvent) bool {
	select {
	case b.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close stops the dispatch goroutine once the channel drains.
func (b *Bus) Close() {
	close(b.stop)
	<-b.done
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for {
		select {
		case event := <-b.events:
			b.fanOut(event)
		case <-b.stop:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case event := <-b.events:
					b.fanOut(event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) fanOut(event DomainEvent) {
	b.mu.RLock()
	consumers := make([]Sink, len(b.consumers))
	copy(consumers, b.consumers)
	b.mu.RUnlock()

	ctx := context.Background()
	for _, c := range consumers {
		if ok := c.Publish(ctx, event); !ok {
			b.logger.Warn("event sink dropped event", "kind", event.Kind, "analyzer_id", event.AnalyzerID)
		}
	}
}
