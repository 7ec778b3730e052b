package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/alanyang/construction-hub/internal/domain/event"
	porteventbus "github.com/alanyang/construction-hub/internal/port/eventbus"
)

var _ porteventbus.EventBus = (*EventBus)(nil)

// SubscriberBuffer is the number of events queued per subscriber before
// Publish starts dropping events for it.
const SubscriberBuffer = 256

// EventBus fans events out to in-process subscribers. Each subscriber has its
// own queue and goroutine, so Publish never waits on a handler. Events reach a
// given subscriber in publish order.
type EventBus struct {
	mu   sync.RWMutex
	next int
	subs map[event.Channel]map[int]*subscription
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[event.Channel]map[int]*subscription)}
}

func (eb *EventBus) Publish(ctx context.Context, e event.Event) error {
	ch := event.ChannelFor(e.Type)

	eb.mu.RLock()
	ids := make([]int, 0, len(eb.subs[ch]))
	for id := range eb.subs[ch] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	targets := make([]*subscription, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, eb.subs[ch][id])
	}
	eb.mu.RUnlock()

	// Handlers outlive the publishing request.
	hctx := context.WithoutCancel(ctx)
	for _, s := range targets {
		s.deliver(hctx, e)
	}
	return nil
}

// Subscribe registers handler on ch. The subscription ends on Unsubscribe or
// when ctx is cancelled; queued events are discarded at that point.
func (eb *EventBus) Subscribe(ctx context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	sub := &subscription{
		handler: handler,
		queue:   make(chan delivery, SubscriberBuffer),
		done:    make(chan struct{}),
	}

	eb.mu.Lock()
	id := eb.next
	eb.next++
	if eb.subs[ch] == nil {
		eb.subs[ch] = make(map[int]*subscription)
	}
	eb.subs[ch][id] = sub
	eb.mu.Unlock()

	sub.remove = func() {
		eb.mu.Lock()
		delete(eb.subs[ch], id)
		eb.mu.Unlock()
	}

	go sub.run()
	go func() {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
		case <-sub.done:
		}
	}()
	return sub, nil
}

type delivery struct {
	ctx context.Context
	e   event.Event
}

type subscription struct {
	handler porteventbus.Handler
	queue   chan delivery
	once    sync.Once
	done    chan struct{}
	remove  func()
}

func (s *subscription) deliver(ctx context.Context, e event.Event) {
	select {
	case <-s.done:
	case s.queue <- delivery{ctx: ctx, e: e}:
	default:
		slog.WarnContext(ctx, "eventbus: subscriber queue full, event dropped",
			"type", e.Type, "entity_id", e.EntityID)
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case d := <-s.queue:
			s.handler(d.ctx, d.e)
		}
	}
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.remove()
		close(s.done)
	})
}
