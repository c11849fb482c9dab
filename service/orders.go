package service

import (
	"club_manager/gateway"
	"club_manager/model"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	defaultHoldTTL     = 10 * time.Minute
	defaultMaxAttempts = 3
	defaultBackoff     = 500 * time.Millisecond
	checkinGrace       = 30 * time.Minute
)

// OrderLine is one requested line of a purchase. UnitID is empty for
// lines without finite inventory (membership cards).
type OrderLine struct {
	Kind      string
	UnitID    string
	RefID     uint
	Label     string
	Quantity  int
	UnitPrice float64
	Discount  float64
	ExpiresAt *time.Time
}

type PlaceOrderResult struct {
	Order      *model.Order `json:"order"`
	PaymentURL string       `json:"paymentUrl"`
	PaymentRef string       `json:"paymentRef"`
}

type ConfirmResult struct {
	Order   *model.Order         `json:"order"`
	Tickets []model.TicketRecord `json:"tickets"`
}

// OrderService is the purchase pipeline: reserve inventory, request a
// payment intent, then reconcile the asynchronous confirmation through
// the state machine.
type OrderService struct {
	machine *Machine
	orders  OrderStore
	ledger  *Ledger
	tickets TicketStore
	gateway gateway.PaymentGateway
	clock   clockwork.Clock

	holdTTL     time.Duration
	maxAttempts int
	backoff     time.Duration
}

type OrderServiceOption func(*OrderService)

func WithHoldTTL(d time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func WithGatewayRetry(attempts int, backoff time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
		if backoff >= 0 {
			s.backoff = backoff
		}
	}
}

func NewOrderService(machine *Machine, orders OrderStore, ledger *Ledger, tickets TicketStore, gw gateway.PaymentGateway, clk clockwork.Clock, opts ...OrderServiceOption) *OrderService {
	s := &OrderService{
		machine:     machine,
		orders:      orders,
		ledger:      ledger,
		tickets:     tickets,
		gateway:     gw,
		clock:       clk,
		holdTTL:     defaultHoldTTL,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder reserves every line (all-or-nothing), asks the gateway for a
// payment intent and moves the order to PROCESSING. Any failure before
// that point leaves no reservation standing.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID *uint, lines []OrderLine) (*PlaceOrderResult, error) {
	if len(lines) == 0 {
		return nil, ErrInvalidQuantity
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	code := "ORD-" + uuid.New().String()[:8]
	order := &model.Order{
		PublicCode: code,
		CustomerID: customerID,
		State:      model.StateInitial,
		Status:     model.StatusPending,
	}
	for _, line := range lines {
		order.Items = append(order.Items, model.OrderItem{
			Kind:      line.Kind,
			UnitID:    line.UnitID,
			RefID:     line.RefID,
			Label:     line.Label,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
			ExpiresAt: line.ExpiresAt,
		})
	}
	order.TotalAmount = order.Total()
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	var reserve []ReserveLine
	for _, line := range lines {
		if line.UnitID == "" {
			continue
		}
		reserve = append(reserve, ReserveLine{UnitID: line.UnitID, Quantity: line.Quantity})
	}
	if len(reserve) > 0 {
		if err := s.ledger.ReserveAll(ctx, reserve, code, s.holdTTL); err != nil {
			s.abort(ctx, code)
			return nil, err
		}
	}

	payRef := fmt.Sprintf("PAY_%s_%s", s.clock.Now().Format("20060102"), code[4:])
	payURL, err := s.createIntent(ctx, order, payRef)
	if err != nil {
		s.abort(ctx, code)
		return nil, err
	}

	order.PaymentRef = payRef
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	order, err = s.machine.Apply(ctx, code, EventOrderPlaced)
	if err != nil {
		return nil, err
	}

	return &PlaceOrderResult{Order: order, PaymentURL: payURL, PaymentRef: payRef}, nil
}

func (s *OrderService) createIntent(ctx context.Context, order *model.Order, payRef string) (string, error) {
	req := model.PaymentRequest{
		Amount:    int64(order.TotalAmount),
		Currency:  "EUR",
		OrderInfo: fmt.Sprintf("Club order %s", order.PublicCode),
		TxnRef:    payRef,
	}
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		payURL, err := s.gateway.CreateIntent(ctx, req)
		if err == nil {
			return payURL, nil
		}
		lastErr = err
		log.Printf("payment intent for %s failed (attempt %d/%d): %v", order.PublicCode, attempt, s.maxAttempts, err)
		if attempt < s.maxAttempts && s.backoff > 0 {
			s.clock.Sleep(s.backoff * time.Duration(attempt))
		}
	}
	return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, lastErr)
}

// abort cancels a just-created order before it ever reached PROCESSING.
func (s *OrderService) abort(ctx context.Context, code string) {
	if _, err := s.machine.Apply(ctx, code, EventPaymentFailed); err != nil {
		log.Printf("abort order %s: %v", code, err)
	}
}

// ConfirmOrder handles the gateway confirmation for a payment intent.
// Duplicate callbacks return the already-issued records; a confirmation
// arriving after the TTL sweep cancelled the order is a no-op.
func (s *OrderService) ConfirmOrder(ctx context.Context, paymentRef string) (*ConfirmResult, error) {
	order, err := s.orders.ByPaymentRef(ctx, paymentRef)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: payment ref %s", ErrOrderNotFound, paymentRef)
	}

	code := order.PublicCode
	order, err = s.machine.Apply(ctx, code, EventPaymentConfirmed)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Late confirmation for a swept or refunded order: do not
			// re-reserve, do not re-confirm.
			stale, lookupErr := s.orders.ByPublicCode(ctx, code)
			if lookupErr == nil && stale != nil && model.IsTerminalState(stale.State) {
				log.Printf("late confirmation for %s ignored (state %s)", stale.PublicCode, stale.State)
				return &ConfirmResult{Order: stale}, nil
			}
		}
		return nil, err
	}

	tickets, err := s.tickets.ByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{Order: order, Tickets: tickets}, nil
}

// FailOrder handles a gateway failure callback.
func (s *OrderService) FailOrder(ctx context.Context, paymentRef, reason string) (*model.Order, error) {
	order, err := s.orders.ByPaymentRef(ctx, paymentRef)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: payment ref %s", ErrOrderNotFound, paymentRef)
	}
	if model.IsTerminalState(order.State) {
		// Duplicate or late failure signal.
		return order, nil
	}

	order, err = s.machine.Apply(ctx, order.PublicCode, EventPaymentFailed)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		order.Notes = reason
		if err := s.orders.Save(ctx, order); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ChangeOrderState is the administrative surface over the transition
// table: shipping, delivery and refunds.
func (s *OrderService) ChangeOrderState(ctx context.Context, orderCode, requested string) (*model.Order, error) {
	var ev Event
	switch requested {
	case model.StatusShipped, model.StateDelivery:
		ev = EventMarkShipped
	case model.StatusDelivered, model.StateFinished:
		ev = EventMarkDelivered
	case model.StatusRefunded:
		ev = EventRefund
	case model.StatusCancelled:
		ev = EventPaymentFailed
	default:
		return nil, fmt.Errorf("%w: unknown target state %s", ErrInvalidTransition, requested)
	}
	return s.machine.Apply(ctx, orderCode, ev)
}

// GetOrder loads an order by its public code.
func (s *OrderService) GetOrder(ctx context.Context, code string) (*model.Order, error) {
	order, err := s.orders.ByPublicCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, code)
	}
	return order, nil
}

// TicketsForOrder loads the issued artifacts of an order.
func (s *OrderService) TicketsForOrder(ctx context.Context, orderID uint) ([]model.TicketRecord, error) {
	return s.tickets.ByOrder(ctx, orderID)
}

// TicketPurchaseInput is the one-sector specialization of PlaceOrder.
type TicketPurchaseInput struct {
	MatchID    uint
	SectorID   uint
	Quantity   int
	CustomerID *uint
	UnitPrice  float64
	Label      string
	KickoffAt  time.Time
}

// PurchaseTicket runs the reserve-confirm-issue pipeline for one sector.
// The ticket stays valid until shortly after kickoff.
func (s *OrderService) PurchaseTicket(ctx context.Context, in TicketPurchaseInput) (*PlaceOrderResult, error) {
	expires := in.KickoffAt.Add(checkinGrace)
	line := OrderLine{
		Kind:      model.ArtifactTicket,
		UnitID:    model.SectorUnitID(in.MatchID, in.SectorID),
		RefID:     in.SectorID,
		Label:     in.Label,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		ExpiresAt: &expires,
	}
	return s.PlaceOrder(ctx, in.CustomerID, []OrderLine{line})
}

// MembershipPurchaseInput buys one membership card. Plans have no finite
// inventory, so the line carries no unit id.
type MembershipPurchaseInput struct {
	PlanID         uint
	CustomerID     *uint
	Price          float64
	Label          string
	ValidityMonths int
}

func (s *OrderService) PurchaseMembership(ctx context.Context, in MembershipPurchaseInput) (*PlaceOrderResult, error) {
	expires := s.clock.Now().AddDate(0, in.ValidityMonths, 0)
	line := OrderLine{
		Kind:      model.ArtifactCard,
		RefID:     in.PlanID,
		Label:     in.Label,
		Quantity:  1,
		UnitPrice: in.Price,
		ExpiresAt: &expires,
	}
	return s.PlaceOrder(ctx, in.CustomerID, []OrderLine{line})
}

// SweepAbandoned cancels orders whose payment never confirmed. Runs on a
// schedule. Expired holds are released and their orders cancelled; orders
// without reservations (membership purchases) are caught by their age
// instead, since no hold ever expires for them.
func (s *OrderService) SweepAbandoned(ctx context.Context) {
	for _, holdID := range s.ledger.SweepExpired(ctx) {
		s.cancelAbandoned(ctx, holdID)
	}

	stale, err := s.orders.StaleProcessing(ctx, s.clock.Now().Add(-s.holdTTL))
	if err != nil {
		log.Printf("sweep stale orders: %v", err)
		return
	}
	for _, code := range stale {
		s.cancelAbandoned(ctx, code)
	}
}

func (s *OrderService) cancelAbandoned(ctx context.Context, code string) {
	if _, err := s.machine.Apply(ctx, code, EventPaymentFailed); err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrOrderNotFound) {
			return
		}
		log.Printf("sweep cancel %s: %v", code, err)
	}
}

// ExpireTickets moves tickets past their validity window to EXPIRED.
func (s *OrderService) ExpireTickets(ctx context.Context) {
	n, err := s.tickets.MarkExpired(ctx, s.clock.Now())
	if err != nil {
		log.Printf("expire tickets: %v", err)
		return
	}
	if n > 0 {
		log.Printf("expired %d tickets", n)
	}
}
