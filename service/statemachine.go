package service

import (
	"club_manager/model"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/jonboulle/clockwork"
)

// Event is a typed trigger fed into the order state machine. Payment
// events arrive from the gateway callback path, fulfilment events from
// admin actions, timeouts from the ledger sweep.
type Event string

const (
	EventOrderPlaced      Event = "ORDER_PLACED"
	EventPaymentConfirmed Event = "PAYMENT_CONFIRMED"
	EventPaymentFailed    Event = "PAYMENT_FAILED"
	EventMarkShipped      Event = "MARK_SHIPPED"
	EventMarkDelivered    Event = "MARK_DELIVERED"
	EventRefund           Event = "REFUND"
)

// transitions is the full lifecycle table. Anything not listed here fails
// with ErrInvalidTransition and leaves the order untouched.
var transitions = map[string]map[Event]string{
	model.StateInitial: {
		EventOrderPlaced:   model.StateProcessing,
		EventPaymentFailed: model.StateCancelled,
	},
	model.StateProcessing: {
		EventPaymentConfirmed: model.StateConfirmed,
		EventPaymentFailed:    model.StateCancelled,
	},
	model.StateConfirmed: {
		EventMarkShipped: model.StateDelivery,
		EventRefund:      model.StateRefunded,
	},
	model.StateDelivery: {
		EventMarkDelivered: model.StateFinished,
		EventRefund:        model.StateRefunded,
	},
}

// Machine owns every order state change and drives the side effects of
// each transition: inventory commit/release, artifact issuance and outbox
// events. Transitions for one order never run concurrently.
type Machine struct {
	orders OrderStore
	ledger *Ledger
	issuer *Issuer
	outbox *Outbox
	clock  clockwork.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMachine(orders OrderStore, ledger *Ledger, issuer *Issuer, outbox *Outbox, clk clockwork.Clock) *Machine {
	return &Machine{
		orders: orders,
		ledger: ledger,
		issuer: issuer,
		outbox: outbox,
		clock:  clk,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lock serializes transitions per order public code.
func (m *Machine) lock(code string) func() {
	m.mu.Lock()
	l, ok := m.locks[code]
	if !ok {
		l = &sync.Mutex{}
		m.locks[code] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// forget drops the per-order mutex once the order can no longer move, so
// the map does not grow with every order ever placed. A straggler still
// holding the old mutex only ever observes the terminal state: every
// event is rejected off a terminal state without side effects.
func (m *Machine) forget(code string) {
	m.mu.Lock()
	delete(m.locks, code)
	m.mu.Unlock()
}

// Apply drives one event against the order. A duplicate payment
// confirmation observes the already-confirmed state and returns the order
// without repeating side effects.
func (m *Machine) Apply(ctx context.Context, orderCode string, ev Event) (*model.Order, error) {
	unlock := m.lock(orderCode)
	defer unlock()

	order, err := m.orders.ByPublicCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderCode)
	}

	if ev == EventPaymentConfirmed && order.State == model.StateConfirmed {
		// Retried callback; everything was already done under the lock.
		return order, nil
	}

	next, ok := transitions[order.State][ev]
	if !ok {
		if model.IsTerminalState(order.State) {
			// A late event re-created the lock entry; drop it again.
			m.forget(orderCode)
		}
		return nil, fmt.Errorf("%w: %s cannot handle %s (order %s)", ErrInvalidTransition, order.State, ev, orderCode)
	}

	if err := m.applyEffects(ctx, order, ev, next); err != nil {
		return nil, err
	}

	order.State = next
	order.Status = model.StatusFor(next)
	if err := m.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	if model.IsTerminalState(next) {
		m.forget(orderCode)
	}
	return order, nil
}

func (m *Machine) applyEffects(ctx context.Context, order *model.Order, ev Event, next string) error {
	now := m.clock.Now()
	switch next {
	case model.StateConfirmed:
		if err := m.ledger.Commit(ctx, order.PublicCode); err != nil {
			return err
		}
		order.PaidAt = &now
		order.TotalAmount = order.Total()
		var codes []string
		for i := range order.Items {
			rec, err := m.issuer.Issue(ctx, order, &order.Items[i])
			if err != nil {
				return err
			}
			if rec != nil {
				codes = append(codes, rec.Code)
				m.enqueue(ctx, model.EventTicketIssued, map[string]any{
					"orderCode": order.PublicCode,
					"code":      rec.Code,
					"kind":      rec.Kind,
				})
			}
		}
		m.enqueue(ctx, model.EventOrderConfirmed, map[string]any{
			"orderCode":   order.PublicCode,
			"totalAmount": order.TotalAmount,
			"tickets":     codes,
		})

	case model.StateCancelled:
		if err := m.ledger.Release(ctx, order.PublicCode); err != nil {
			return err
		}
		order.CancelledAt = &now
		m.enqueue(ctx, model.EventOrderCancelled, map[string]any{
			"orderCode": order.PublicCode,
		})

	case model.StateRefunded:
		// Holds are normally committed by now; Release is a no-op then.
		if err := m.ledger.Release(ctx, order.PublicCode); err != nil {
			return err
		}
		if err := m.issuer.CancelForOrder(ctx, order.ID); err != nil {
			return err
		}
		order.CancelledAt = &now
		m.enqueue(ctx, model.EventOrderRefunded, map[string]any{
			"orderCode":    order.PublicCode,
			"refundAmount": order.TotalAmount,
		})

	case model.StateDelivery:
		order.ShippedAt = &now

	case model.StateFinished:
		order.DeliveredAt = &now
	}
	return nil
}

func (m *Machine) enqueue(ctx context.Context, eventType string, payload map[string]any) {
	if m.outbox == nil {
		return
	}
	if err := m.outbox.Enqueue(ctx, eventType, payload); err != nil {
		// The outbox row is the durability boundary; losing it is worth
		// shouting about, but the transition itself already happened.
		body, _ := json.Marshal(payload)
		log.Printf("outbox enqueue %s failed: %v payload=%s", eventType, err, body)
	}
}
