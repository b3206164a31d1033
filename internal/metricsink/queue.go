// Package metricsink is the producing boundary for status-transition
// events: a bounded, single-producer queue fanned out to independent
// handlers, with two concrete consumers shipped (Prometheus, NATS).
//
// The queue is bounded and enqueue never blocks the reconciler: a full
// queue drops the event and logs a warning.
package metricsink

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	sessionv1alpha1 "github.com/sessionserver-operator/operator/api/v1alpha1"
	"github.com/sessionserver-operator/operator/pkg/metrics"
)

// Event is one status-transition notification, enqueued on any transition
// of status.state and on parent deletion.
type Event struct {
	EventID   string
	Timestamp time.Time
	Namespace string
	Name      string
	OldStatus sessionv1alpha1.OverallStatus
	NewStatus sessionv1alpha1.OverallStatus
}

// Handler consumes events independently of the producer and of other
// handlers. Handle should not block indefinitely; a slow handler only
// delays its own per-handler channel, never the producer or other handlers.
type Handler interface {
	Handle(ctx context.Context, event Event)
}

// Queue is a bounded single-producer/multi-consumer channel. Capacity is
// fixed at construction; Enqueue is non-blocking.
type Queue struct {
	in       chan Event
	handlers []Handler
	log      logr.Logger
}

// NewQueue builds a queue with the given capacity and handler set. A
// capacity of 0 is not rejected: such a queue drops every event that no
// consumer is already waiting to receive, since this package only enforces
// "drop on full."
func NewQueue(capacity int, log logr.Logger, handlers ...Handler) *Queue {
	return &Queue{
		in:       make(chan Event, capacity),
		handlers: handlers,
		log:      log,
	}
}

// Enqueue submits an event. If the queue is full the event is dropped and a
// warning logged.
func (q *Queue) Enqueue(e Event) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	select {
	case q.in <- e:
	default:
		q.log.Info("metric event queue full, dropping event", "namespace", e.Namespace, "name", e.Name, "newStatus", e.NewStatus)
		metrics.RecordMetricEventDropped(e.Namespace)
	}
}

// Run drains the queue until ctx is done, fanning each event out to every
// handler on its own goroutine so one slow consumer cannot delay another.
// Run blocks; call it from its own goroutine at operator startup.
func (q *Queue) Run(ctx context.Context) {
	perHandler := make([]chan Event, len(q.handlers))
	for i, h := range q.handlers {
		ch := make(chan Event, cap(q.in))
		perHandler[i] = ch
		go func(h Handler, ch chan Event) {
			for {
				select {
				case <-ctx.Done():
					return
				case e := <-ch:
					h.Handle(ctx, e)
				}
			}
		}(h, ch)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-q.in:
			for _, ch := range perHandler {
				select {
				case ch <- e:
				default:
					q.log.Info("metric event handler channel full, dropping event for that handler", "namespace", e.Namespace, "name", e.Name)
				}
			}
		}
	}
}
