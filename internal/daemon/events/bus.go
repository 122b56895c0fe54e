package events

import (
	"context"
	"reflect"
	"sync"

	ferrors "git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
)

// Bus is a typed in-process event bus for daemon orchestration. It is
// deliberately not durable; durable run history lives in
// internal/eventstore. Publish applies backpressure: it blocks until
// every matching subscriber has accepted the event or the context is
// canceled.
type Bus struct {
	mu     sync.RWMutex
	closed bool
	nextID uint64
	subs   map[reflect.Type]map[uint64]*subscription
}

type subscription struct {
	deliver func(ctx context.Context, evt any) error
	stop    func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]*subscription)}
}

// Subscribe registers a channel for events of type T. When T is an
// interface, any published event whose concrete type implements it is
// delivered; a concrete T only matches exactly. The returned function
// unsubscribes and closes the channel.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	eventType := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	var once sync.Once
	stop := func() { once.Do(func() { close(ch) }) }

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		stop()
		return ch, func() {}
	}

	b.nextID++
	id := b.nextID
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]*subscription)
	}
	b.subs[eventType][id] = &subscription{
		deliver: func(ctx context.Context, evt any) error {
			v, ok := evt.(T)
			if !ok {
				return ferrors.InternalError("event type mismatch").
					WithContext("expected", eventType.String()).
					WithContext("actual", reflect.TypeOf(evt).String()).
					Build()
			}
			select {
			case ch <- v:
				return nil
			case <-ctx.Done():
				return ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "event publish canceled").
					WithContext("event_type", eventType.String()).
					Build()
			}
		},
		stop: stop,
	}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if set := b.subs[eventType]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(b.subs, eventType)
			}
		}
		b.mu.Unlock()
		stop()
	}
	return ch, unsubscribe
}

// SubscriberCount reports active subscriptions for type T. Intended
// for tests and diagnostics.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[reflect.TypeFor[T]()])
}

// Publish delivers an event to every matching subscriber, blocking on
// each until it accepts or ctx is canceled.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return ferrors.ValidationError("event cannot be nil").Build()
	}
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}

	evtType := reflect.TypeOf(evt)

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ferrors.DaemonError("event bus is closed").Build()
	}
	var targets []*subscription
	for subType, set := range b.subs {
		if subType != evtType &&
			(subType.Kind() != reflect.Interface || !evtType.Implements(subType)) {
			continue
		}
		for _, sub := range set {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	// Delivery happens outside the lock so a blocked subscriber never
	// stalls Subscribe or Close.
	for _, sub := range targets {
		if err := sub.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts the bus down and closes every subscription channel.
// Publishing after Close is an error; closing twice is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*subscription
	for _, set := range b.subs {
		for _, sub := range set {
			all = append(all, sub)
		}
	}
	b.subs = make(map[reflect.Type]map[uint64]*subscription)
	b.mu.Unlock()

	for _, sub := range all {
		sub.stop()
	}
}
