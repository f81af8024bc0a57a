package eventbus

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (s *recordingSink) Publish(_ context.Context, event DomainEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return true
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBusFansOutToAllConsumers(t *testing.T) {
	bus := New(0, testLogger())
	defer bus.Close()

	sinkA := &recordingSink{}
	sinkB := &recordingSink{}
	bus.Subscribe(sinkA)
	bus.Subscribe(sinkB)

	bus.Publish(DomainEvent{Kind: AnalyzerConnected, AnalyzerID: "astm-1"})

	require.Eventually(t, func() bool {
		return sinkA.count() == 1 && sinkB.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestBusClampsBufferSizeToMinimum(t *testing.T) {
	bus := New(1, testLogger())
	defer bus.Close()
	assert.Equal(t, DefaultBufferSize, cap(bus.events))
}

func TestBusPublishTimeoutFailsWhenContextDone(t *testing.T) {
	bus := &Bus{events: make(chan DomainEvent), logger: testLogger(), stop: make(chan struct{}), done: make(chan struct{})}
	close(bus.done)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := bus.PublishTimeout(ctx, DomainEvent{Kind: ErrorEvent})
	assert.False(t, ok)
}

func TestBusCloseDrainsPendingEvents(t *testing.T) {
	bus := New(0, testLogger())
	sink := &recordingSink{}
	bus.Subscribe(sink)

	for i := 0; i < 5; i++ {
		bus.Publish(DomainEvent{Kind: StatusChanged})
	}
	bus.Close()

	assert.Equal(t, 5, sink.count())
}
