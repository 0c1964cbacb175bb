// Package events provides in-process topic fan-out with per-topic
// validators, used by the dispatch coordinator to notify downstream
// consumers without blocking on their work.
package events

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/asgard/sentinel/internal/platform/observability"
)

// Event is the message type carried on every topic.
type Event struct {
	Topic   string
	Payload interface{}
}

// Handler processes an event published to a topic it is subscribed to.
type Handler func(context.Context, Event) error

// Validator is a synchronous predicate run before a publish is accepted.
type Validator func(Event) error

// ValidationError is returned by Publish when a topic's validator rejects
// the message; no subscriber is invoked in that case.
type ValidationError struct {
	Topic   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error on topic '" + e.Topic + "': " + e.Message
}

const subscriberQueueSize = 1024

// subscription pairs a handler with its own serial worker so its deliveries
// stay in publish order even though different subscribers run independently.
type subscription struct {
	handler Handler
	queue   chan Event
}

// Bus is an in-process, topic-addressed event bus. Delivery is at-most-once
// and in-order per topic per subscriber: each subscriber owns a buffered
// queue drained by a single dedicated goroutine, so one slow or failing
// subscriber never delays the publisher or any other subscriber (grounded
// on the reference implementation's per-subscriber fire-and-forget dispatch
// rather than a single sequential dispatch loop).
type Bus struct {
	mu         sync.RWMutex
	subs       map[string][]*subscription
	validators map[string]Validator
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewBus constructs a Bus. Call Start before publishing and Stop on shutdown.
func NewBus() *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		subs:       make(map[string][]*subscription),
		validators: make(map[string]Validator),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start is a no-op retained for lifecycle symmetry with the bus's callers;
// subscriber workers are started individually as Subscribe is called.
func (b *Bus) Start() {
	log.Println("[EventBus] started")
}

// Stop cancels the bus context and waits for every subscriber worker to exit
// before returning. Events still queued for a subscriber are not delivered.
func (b *Bus) Stop() {
	b.cancel()
	b.wg.Wait()
	log.Println("[EventBus] stopped")
}

// SetValidator installs a synchronous predicate for topic. A failing
// validator causes Publish to return a *ValidationError without invoking
// any subscriber.
func (b *Bus) SetValidator(topic string, fn Validator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validators[topic] = fn
}

// Subscribe registers fn to be invoked, in order, on every future publish to
// topic. Each subscriber gets its own worker goroutine and queue.
func (b *Bus) Subscribe(topic string, fn Handler) {
	sub := &subscription{handler: fn, queue: make(chan Event, subscriberQueueSize)}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	b.wg.Add(1)
	go b.runSubscriber(sub, topic)
}

func (b *Bus) runSubscriber(sub *subscription, topic string) {
	defer b.wg.Done()
	for {
		select {
		case event := <-sub.queue:
			start := time.Now()
			if err := sub.handler(b.ctx, event); err != nil {
				log.Printf("[EventBus] handler error on topic %s: %v", topic, err)
			}
			observability.RecordEventProcessed(topic)
			observability.RecordEventLatency(topic, time.Since(start))
		case <-b.ctx.Done():
			return
		}
	}
}

// Publish validates the event, then enqueues it to every current
// subscriber of its topic without blocking the caller on subscriber work.
// A subscriber whose queue is full drops the event rather than applying
// backpressure to the publisher.
func (b *Bus) Publish(event Event) error {
	b.mu.RLock()
	validator := b.validators[event.Topic]
	subs := append([]*subscription(nil), b.subs[event.Topic]...)
	b.mu.RUnlock()

	if validator != nil {
		if err := validator(event); err != nil {
			return &ValidationError{Topic: event.Topic, Message: err.Error()}
		}
	}

	for _, sub := range subs {
		select {
		case sub.queue <- event:
		default:
			log.Printf("[EventBus] subscriber queue full on topic %s, dropping event", event.Topic)
			observability.RecordEventDropped(event.Topic)
		}
	}
	return nil
}
