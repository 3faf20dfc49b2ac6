// Package events delivers ingestion and query lifecycle notifications to
// subscribers without blocking the pipelines that produce them.
package events

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Type identifies the kind of lifecycle event.
type Type string

const (
	TypeDocumentCreated     Type = "document.created"
	TypeDocumentReused      Type = "document.reused"
	TypeEntityCreated       Type = "entity.created"
	TypeEntityReused        Type = "entity.reused"
	TypeRelationshipCreated Type = "relationship.created"
	TypeQueryAnswered       Type = "query.answered"
	TypeBatchItemDone       Type = "batch.item.done"
)

// Event is one lifecycle notification. Payload keys are event-specific.
type Event struct {
	Type      Type                   `json:"type"`
	ScopeID   string                 `json:"scope_id"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Handler consumes events. Handlers run on the emitter goroutine and must
// not block for long.
type Handler func(Event)

// Emitter fans events out to registered handlers.
type Emitter interface {
	Emit(event Event)
	Subscribe(handler Handler)
	Close()
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) Emit(Event)        {}
func (NopEmitter) Subscribe(Handler) {}
func (NopEmitter) Close()            {}

// AsyncEmitter buffers events on a channel and delivers them from a single
// background goroutine, so Emit never blocks the ingestion hot path. When
// the buffer is full the event is dropped and counted rather than stalling
// the caller.
type AsyncEmitter struct {
	ch     chan Event
	done   chan struct{}
	logger *slog.Logger

	mu       sync.RWMutex
	handlers []Handler
	closed   bool
	dropped  int64
}

// NewAsyncEmitter creates an emitter with the given buffer size. A
// non-positive size falls back to 256.
func NewAsyncEmitter(bufferSize int, logger *slog.Logger) *AsyncEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &AsyncEmitter{
		ch:     make(chan Event, bufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go e.run()
	return e
}

// Subscribe registers a handler for all subsequent events.
func (e *AsyncEmitter) Subscribe(handler Handler) {
	if handler == nil {
		return
	}
	e.mu.Lock()
	e.handlers = append(e.handlers, handler)
	e.mu.Unlock()
}

// Emit enqueues an event for delivery. Safe to call from any goroutine.
func (e *AsyncEmitter) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	// The read lock is held across the send so Close cannot close the
	// channel between the check and the send.
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return
	}
	var dropped int64
	select {
	case e.ch <- event:
	default:
		dropped = atomic.AddInt64(&e.dropped, 1)
	}
	e.mu.RUnlock()
	if dropped > 0 {
		e.logger.Warn("event buffer full, dropping event",
			"type", event.Type,
			"dropped_total", dropped)
	}
}

// Dropped returns the number of events discarded due to a full buffer.
func (e *AsyncEmitter) Dropped() int64 {
	return atomic.LoadInt64(&e.dropped)
}

// Close stops the delivery goroutine after draining buffered events.
func (e *AsyncEmitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	close(e.ch)
	<-e.done
}

func (e *AsyncEmitter) run() {
	defer close(e.done)
	for event := range e.ch {
		e.mu.RLock()
		handlers := make([]Handler, len(e.handlers))
		copy(handlers, e.handlers)
		e.mu.RUnlock()
		for _, h := range handlers {
			h(event)
		}
	}
}
