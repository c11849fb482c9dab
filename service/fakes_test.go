package service

import (
	"club_manager/model"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"
)

// memLedgerStore serializes transactions with one mutex and restores a
// snapshot on rollback, which is enough to model the row-locked Postgres
// store in tests.
type memLedgerStore struct {
	mu           sync.Mutex
	units        map[string]*model.InventoryUnit
	reservations []model.Reservation
	nextID       uint
}

func newMemLedgerStore(units ...model.InventoryUnit) *memLedgerStore {
	s := &memLedgerStore{units: make(map[string]*model.InventoryUnit)}
	for _, u := range units {
		unit := u
		s.units[u.UnitID] = &unit
	}
	return s
}

func (s *memLedgerStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unitsSnap := make(map[string]*model.InventoryUnit, len(s.units))
	for id, u := range s.units {
		cp := *u
		unitsSnap[id] = &cp
	}
	resSnap := append([]model.Reservation(nil), s.reservations...)

	if err := fn(ctx); err != nil {
		s.units = unitsSnap
		s.reservations = resSnap
		return err
	}
	return nil
}

func (s *memLedgerStore) UnitForUpdate(ctx context.Context, unitID string) (*model.InventoryUnit, error) {
	u, ok := s.units[unitID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memLedgerStore) SaveUnit(ctx context.Context, unit *model.InventoryUnit) error {
	cp := *unit
	s.units[unit.UnitID] = &cp
	return nil
}

func (s *memLedgerStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	s.nextID++
	r.ID = s.nextID
	s.reservations = append(s.reservations, *r)
	return nil
}

func (s *memLedgerStore) ReservationsByHold(ctx context.Context, holdID string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range s.reservations {
		if r.HoldID == holdID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memLedgerStore) DeleteReservationsByHold(ctx context.Context, holdID string) error {
	kept := s.reservations[:0]
	for _, r := range s.reservations {
		if r.HoldID != holdID {
			kept = append(kept, r)
		}
	}
	s.reservations = kept
	return nil
}

func (s *memLedgerStore) ExpiredHolds(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var holds []string
	for _, r := range s.reservations {
		if r.ExpiresAt.Before(now) && !seen[r.HoldID] {
			seen[r.HoldID] = true
			holds = append(holds, r.HoldID)
		}
	}
	return holds, nil
}

func (s *memLedgerStore) unit(unitID string) model.InventoryUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.units[unitID]
}

type memOrderStore struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	nextID uint
	now    func() time.Time // creation timestamps; defaults to time.Now
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[string]*model.Order)}
}

func (s *memOrderStore) Create(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	order.ID = s.nextID
	if order.CreatedAt.IsZero() {
		if s.now != nil {
			order.CreatedAt = s.now()
		} else {
			order.CreatedAt = time.Now()
		}
	}
	for i := range order.Items {
		s.nextID++
		order.Items[i].ID = s.nextID
		order.Items[i].OrderId = order.ID
	}
	s.orders[order.PublicCode] = copyOrder(order)
	return nil
}

func (s *memOrderStore) ByPublicCode(ctx context.Context, code string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[code]
	if !ok {
		return nil, nil
	}
	return copyOrder(order), nil
}

func (s *memOrderStore) ByPaymentRef(ctx context.Context, ref string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.PaymentRef == ref && ref != "" {
			return copyOrder(order), nil
		}
	}
	return nil, nil
}

func (s *memOrderStore) Save(ctx context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.PublicCode] = copyOrder(order)
	return nil
}

func (s *memOrderStore) StaleProcessing(ctx context.Context, before time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes []string
	for _, order := range s.orders {
		if order.State == model.StateProcessing && order.CreatedAt.Before(before) {
			codes = append(codes, order.PublicCode)
		}
	}
	return codes, nil
}

func copyOrder(order *model.Order) *model.Order {
	cp := *order
	cp.Items = append([]model.OrderItem(nil), order.Items...)
	return &cp
}

type memTicketStore struct {
	mu      sync.Mutex
	records map[string]*model.TicketRecord
	nextID  uint
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{records: make(map[string]*model.TicketRecord)}
}

func (s *memTicketStore) Create(ctx context.Context, rec *model.TicketRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.OrderItemId == rec.OrderItemId {
			return errors.New("duplicate order item record")
		}
	}
	s.nextID++
	rec.ID = s.nextID
	cp := *rec
	s.records[rec.Code] = &cp
	return nil
}

func (s *memTicketStore) ByOrderItem(ctx context.Context, itemID uint) (*model.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.OrderItemId == itemID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memTicketStore) ByCode(ctx context.Context, code string) (*model.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[code]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memTicketStore) ByOrder(ctx context.Context, orderID uint) ([]model.TicketRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TicketRecord
	for _, rec := range s.records {
		if rec.OrderId == orderID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *memTicketStore) Redeem(ctx context.Context, code string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[code]
	if !ok || rec.Status != model.TicketIssued {
		return false, nil
	}
	rec.Status = model.TicketUsed
	rec.UsedAt = &at
	return true, nil
}

func (s *memTicketStore) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rec := range s.records {
		if rec.Status == model.TicketIssued && rec.ExpiresAt != nil && rec.ExpiresAt.Before(now) {
			rec.Status = model.TicketExpired
			n++
		}
	}
	return n, nil
}

func (s *memTicketStore) CancelByOrder(ctx context.Context, orderID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.OrderId == orderID && rec.Status != model.TicketUsed {
			rec.Status = model.TicketCancelled
		}
	}
	return nil
}

func (s *memTicketStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type memOutboxStore struct {
	mu     sync.Mutex
	events []model.OutboxEvent
	nextID uint
}

func newMemOutboxStore() *memOutboxStore {
	return &memOutboxStore{}
}

func (s *memOutboxStore) Append(ctx context.Context, ev *model.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ev.ID = s.nextID
	s.events = append(s.events, *ev)
	return nil
}

func (s *memOutboxStore) Pending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.OutboxEvent
	for _, ev := range s.events {
		if ev.Status == model.OutboxPending {
			out = append(out, ev)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *memOutboxStore) MarkPublished(ctx context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Status = model.OutboxPublished
			s.events[i].PublishedAt = &at
		}
	}
	return nil
}

func (s *memOutboxStore) IncrementAttempts(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Attempts++
		}
	}
	return nil
}

func (s *memOutboxStore) byType(eventType string) []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.OutboxEvent
	for _, ev := range s.events {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// fakeGateway counts intent calls and can fail the first N of them.
type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (g *fakeGateway) CreateIntent(ctx context.Context, req model.PaymentRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= g.failures {
		return "", errors.New("gateway timeout")
	}
	return fmt.Sprintf("https://pay.test/checkout?ref=%s", req.TxnRef), nil
}

func (g *fakeGateway) VerifyReturn(query url.Values) model.PaymentResponse {
	return model.PaymentResponse{}
}

func (g *fakeGateway) VerifyIPN(query url.Values) model.PaymentResponse {
	return model.PaymentResponse{}
}

// fakeBus records published messages and can be switched to fail.
type fakeBus struct {
	mu        sync.Mutex
	published [][]byte
	fail      bool
}

func (b *fakeBus) Publish(queue string, message []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("bus unavailable")
	}
	b.published = append(b.published, message)
	return nil
}

func (b *fakeBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

func (b *fakeBus) setFail(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = fail
}
