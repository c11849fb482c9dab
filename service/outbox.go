package service

import (
	"club_manager/model"
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
)

// BusPublisher is the message-bus capability the outbox drains into.
type BusPublisher interface {
	Publish(queue string, message []byte) error
}

// Outbox provides at-least-once publication of domain events. Enqueue
// writes a durable row; a background loop pushes rows to the bus and only
// then marks them published, so nothing is lost between enqueue and
// publish even across a restart.
type Outbox struct {
	store    OutboxStore
	bus      BusPublisher
	queue    string
	interval time.Duration
	clock    clockwork.Clock
	stop     chan struct{}
	done     chan struct{}
}

const outboxBatch = 50

func NewOutbox(store OutboxStore, bus BusPublisher, queue string, interval time.Duration, clk clockwork.Clock) *Outbox {
	return &Outbox{
		store:    store,
		bus:      bus,
		queue:    queue,
		interval: interval,
		clock:    clk,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Enqueue appends one event. The payload is marshalled here so a bad
// payload fails the caller, not the publisher loop.
func (o *Outbox) Enqueue(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return o.store.Append(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   string(body),
		Status:    model.OutboxPending,
	})
}

// Start launches the publisher loop.
func (o *Outbox) Start() {
	go func() {
		defer close(o.done)
		ticker := time.NewTicker(o.interval)
		defer ticker.Stop()
		for {
			select {
			case <-o.stop:
				return
			case <-ticker.C:
				o.Drain(context.Background())
			}
		}
	}()
}

// Stop ends the publisher loop and waits for it.
func (o *Outbox) Stop() {
	close(o.stop)
	<-o.done
}

// Drain publishes pending rows once. Failed publishes stay pending with a
// bumped attempt count and are retried next tick; duplicates on the bus
// are possible and consumers must be idempotent.
func (o *Outbox) Drain(ctx context.Context) {
	events, err := o.store.Pending(ctx, outboxBatch)
	if err != nil {
		log.Printf("outbox: load pending: %v", err)
		return
	}
	for _, ev := range events {
		envelope, err := json.Marshal(map[string]any{
			"id":        ev.ID,
			"eventType": ev.EventType,
			"payload":   json.RawMessage(ev.Payload),
		})
		if err != nil {
			log.Printf("outbox: marshal event %d: %v", ev.ID, err)
			continue
		}
		if err := o.bus.Publish(o.queue, envelope); err != nil {
			log.Printf("outbox: publish event %d (%s): %v", ev.ID, ev.EventType, err)
			if err := o.store.IncrementAttempts(ctx, ev.ID); err != nil {
				log.Printf("outbox: bump attempts %d: %v", ev.ID, err)
			}
			continue
		}
		if err := o.store.MarkPublished(ctx, ev.ID, o.clock.Now()); err != nil {
			// Row stays pending and will republish; acceptable under
			// at-least-once.
			log.Printf("outbox: mark published %d: %v", ev.ID, err)
		}
	}
}
