package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishInvokesSubscriber(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	received := make(chan Event, 1)
	bus.Subscribe("detections", func(_ context.Context, e Event) error {
		received <- e
		return nil
	})

	if err := bus.Publish(Event{Topic: "detections", Payload: "hello"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	select {
	case e := <-received:
		if e.Payload != "hello" {
			t.Errorf("Payload = %v, want hello", e.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber was not invoked")
	}
}

func TestBus_ValidatorRejectsPublish(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	var invoked bool
	bus.Subscribe("missions", func(_ context.Context, _ Event) error {
		invoked = true
		return nil
	})
	bus.SetValidator("missions", func(e Event) error {
		return errors.New("bad payload")
	})

	err := bus.Publish(Event{Topic: "missions"})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}

	time.Sleep(50 * time.Millisecond)
	if invoked {
		t.Error("subscriber was invoked despite validator rejection")
	}
}

func TestBus_SubscriberOrderPreserved(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	var mu sync.Mutex
	var order []int

	bus.Subscribe("telemetry", func(_ context.Context, e Event) error {
		mu.Lock()
		order = append(order, e.Payload.(int))
		mu.Unlock()
		return nil
	})

	for i := 0; i < 20; i++ {
		if err := bus.Publish(Event{Topic: "telemetry", Payload: i}); err != nil {
			t.Fatalf("Publish(%d) returned error: %v", i, err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 20 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 20 {
		t.Fatalf("received %d events, want 20", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d (events delivered out of order)", i, v, i)
		}
	}
}

func TestBus_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	fastDone := make(chan struct{}, 1)
	bus.Subscribe("detections", func(_ context.Context, _ Event) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	bus.Subscribe("detections", func(_ context.Context, _ Event) error {
		fastDone <- struct{}{}
		return nil
	})

	if err := bus.Publish(Event{Topic: "detections"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	select {
	case <-fastDone:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("fast subscriber was delayed by slow subscriber")
	}
}

func TestBus_FailingHandlerDoesNotPropagate(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	bus.Subscribe("missions", func(_ context.Context, _ Event) error {
		return errors.New("boom")
	})

	if err := bus.Publish(Event{Topic: "missions"}); err != nil {
		t.Fatalf("Publish returned error from subscriber failure: %v", err)
	}
}

func TestBus_NoSubscribersIsNotAnError(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	if err := bus.Publish(Event{Topic: "nobody-listens"}); err != nil {
		t.Fatalf("Publish returned error with no subscribers: %v", err)
	}
}

func TestBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	bus.Start()
	defer bus.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bus.Subscribe("telemetry", func(_ context.Context, _ Event) error { return nil })
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = bus.Publish(Event{Topic: "telemetry", Payload: i})
		}(i)
	}
	wg.Wait()
}
