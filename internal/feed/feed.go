// Package feed is the in-process change feed used to push task and step
// changes to watching clients. It is a convenience layer: events may be
// dropped for slow subscribers and polling the REST API stays the
// authoritative way to observe state.
package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/slok/stepflow/internal/log"
)

// EventKind is the kind of change an event describes.
type EventKind string

const (
	EventStepsCreated     EventKind = "steps_created"
	EventStepUpdated      EventKind = "step_updated"
	EventStepValidated    EventKind = "step_validated"
	EventTaskUpdated      EventKind = "task_updated"
	EventDeliverableReady EventKind = "deliverable_ready"
)

// Event is one observed change on a task or one of its steps.
type Event struct {
	Kind    EventKind `json:"kind"`
	OwnerID string    `json:"-"`
	TaskID  string    `json:"task_id"`
	StepID  string    `json:"step_id,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier publishes change events. Services depend on this interface so
// they can run without a hub.
type Notifier interface {
	Publish(e Event)
}

// Noop notifier discards all events.
var Noop Notifier = noop(0)

type noop int

func (noop) Publish(Event) {}

// HubConfig is the configuration for the feed hub.
type HubConfig struct {
	// Buffer is the per-subscriber channel buffer.
	Buffer int
	Logger log.Logger
}

func (c *HubConfig) defaults() error {
	if c.Buffer <= 0 {
		c.Buffer = 16
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "feed.Hub"})
	return nil
}

// Hub fans events out to per-task subscribers.
type Hub struct {
	buffer int
	logger log.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event // Task ID -> subscriber ID -> channel.
}

// NewHub creates a new feed hub.
func NewHub(cfg HubConfig) (*Hub, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Hub{
		buffer: cfg.Buffer,
		logger: cfg.Logger,
		subs:   map[string]map[int]chan Event{},
	}, nil
}

// Publish delivers the event to every subscriber of its task. Never
// blocks: events for subscribers with a full buffer are dropped.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs[e.TaskID] {
		select {
		case ch <- e:
		default:
			h.logger.Debugf("Dropped %s event for slow subscriber %d on task %s", e.Kind, id, e.TaskID)
		}
	}
}

// Subscribe registers a subscriber for one task. The returned cancel
// function unregisters it and closes the channel.
func (h *Hub) Subscribe(taskID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan Event, h.buffer)

	if h.subs[taskID] == nil {
		h.subs[taskID] = map[int]chan Event{}
	}
	h.subs[taskID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if sub, ok := h.subs[taskID][id]; ok {
			delete(h.subs[taskID], id)
			if len(h.subs[taskID]) == 0 {
				delete(h.subs, taskID)
			}
			close(sub)
		}
	}

	return ch, cancel
}
