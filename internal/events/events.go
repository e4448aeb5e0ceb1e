// Package events implements the in-process notification bus Newsroom's
// subsystems publish their lifecycle on: headline entries and exits, lane
// assignment, dashboard reflows, poller activity, and recovered errors.
// Subscribers name the categories they want; publishing never blocks,
// dropping on a full subscriber buffer instead.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/b0bh00d/Newsroom-sub000/internal/telemetry/metrics"
	"github.com/b0bh00d/Newsroom-sub000/internal/telemetry/tracing"
)

// The closed set of categories Newsroom publishes. Publish rejects
// anything outside it, so a typo'd category fails loudly at the publisher
// instead of silently reaching no subscriber.
const (
	CategoryHeadline  = "headline"
	CategoryChyron    = "chyron"
	CategoryLane      = "lane"
	CategoryDashboard = "dashboard"
	CategoryPoller    = "poller"
	CategoryError     = "error"
)

var knownCategories = map[string]struct{}{
	CategoryHeadline:  {},
	CategoryChyron:    {},
	CategoryLane:      {},
	CategoryDashboard: {},
	CategoryPoller:    {},
	CategoryError:     {},
}

// Event is the envelope published onto the bus.
type Event struct {
	Time     time.Time
	Category string
	Type     string
	Severity string // info|warn|error
	TraceID  string
	SpanID   string
	Labels   map[string]string
	Fields   map[string]interface{}
}

// Subscription is a handle representing one consumer of events.
type Subscription interface {
	C() <-chan Event
	Close() error
}

// BusStats is a point-in-time snapshot of bus activity, counted per
// category so a stuck subsystem (a dashboard that never reflows, a poller
// that never fires) is visible at a glance.
type BusStats struct {
	Subscribers int
	Published   map[string]uint64
	Dropped     uint64
}

// Bus is the event bus interface Newsroom components publish through.
type Bus interface {
	Publish(ev Event) error
	// PublishCtx stamps trace/span IDs from ctx (if any) before publishing.
	PublishCtx(ctx context.Context, ev Event) error
	// Subscribe registers a consumer for the named categories; naming none
	// subscribes to everything.
	Subscribe(buffer int, categories ...string) (Subscription, error)
	Unsubscribe(sub Subscription) error
	Stats() BusStats
}

// NewBus creates a bus, optionally instrumented via provider.
func NewBus(provider metrics.Provider) Bus {
	b := &bus{published: make(map[string]uint64)}
	if provider != nil {
		b.mPublished = provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{Namespace: "newsroom", Subsystem: "events", Name: "published_total", Help: "Events published", Labels: []string{"category"}}})
		b.mDropped = provider.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{Namespace: "newsroom", Subsystem: "events", Name: "dropped_total", Help: "Events dropped due to backpressure"}})
	}
	return b
}

type bus struct {
	mu        sync.Mutex
	subs      []*subscriber
	published map[string]uint64
	dropped   uint64

	mPublished metrics.Counter
	mDropped   metrics.Counter
}

type subscriber struct {
	bus    *bus
	ch     chan Event
	wanted map[string]struct{} // nil = every category
}

func (s *subscriber) wants(category string) bool {
	if s.wanted == nil {
		return true
	}
	_, ok := s.wanted[category]
	return ok
}

func (s *subscriber) C() <-chan Event { return s.ch }
func (s *subscriber) Close() error    { return s.bus.Unsubscribe(s) }

func (b *bus) Publish(ev Event) error {
	if _, ok := knownCategories[ev.Category]; !ok {
		return fmt.Errorf("events: unknown category %q", ev.Category)
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.Lock()
	b.published[ev.Category]++
	for _, s := range b.subs {
		if !s.wants(ev.Category) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			b.dropped++
			if b.mDropped != nil {
				b.mDropped.Inc(1)
			}
		}
	}
	b.mu.Unlock()

	if b.mPublished != nil {
		b.mPublished.Inc(1, ev.Category)
	}
	return nil
}

func (b *bus) PublishCtx(ctx context.Context, ev Event) error {
	if ev.TraceID == "" && ev.SpanID == "" {
		ev.TraceID, ev.SpanID = tracing.ExtractIDs(ctx)
	}
	return b.Publish(ev)
}

func (b *bus) Subscribe(buffer int, categories ...string) (Subscription, error) {
	if buffer <= 0 {
		buffer = 64
	}
	var wanted map[string]struct{}
	if len(categories) > 0 {
		wanted = make(map[string]struct{}, len(categories))
		for _, c := range categories {
			if _, ok := knownCategories[c]; !ok {
				return nil, fmt.Errorf("events: unknown category %q", c)
			}
			wanted[c] = struct{}{}
		}
	}
	s := &subscriber{bus: b, ch: make(chan Event, buffer), wanted: wanted}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return s, nil
}

func (b *bus) Unsubscribe(sub Subscription) error {
	s, ok := sub.(*subscriber)
	if !ok || s == nil {
		return nil
	}
	b.mu.Lock()
	for i, existing := range b.subs {
		if existing == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			break
		}
	}
	b.mu.Unlock()
	return nil
}

func (b *bus) Stats() BusStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	published := make(map[string]uint64, len(b.published))
	for c, n := range b.published {
		published[c] = n
	}
	return BusStats{Subscribers: len(b.subs), Published: published, Dropped: b.dropped}
}
