package model

import "time"

// Internal order states. Transitions happen only through the state machine.
const (
	StateInitial    = "INITIAL"
	StateProcessing = "PROCESSING"
	StateConfirmed  = "CONFIRMED"
	StateCancelled  = "CANCELLED"
	StateDelivery   = "DELIVERY"
	StateFinished   = "FINISHED"
	StateRefunded   = "REFUNDED"
)

// Externally visible order statuses.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusPaid       = "PAID"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCancelled  = "CANCELLED"
	StatusRefunded   = "REFUNDED"
)

// StatusFor maps an internal state onto the status shown to clients.
func StatusFor(state string) string {
	switch state {
	case StateInitial:
		return StatusPending
	case StateProcessing:
		return StatusProcessing
	case StateConfirmed:
		return StatusPaid
	case StateDelivery:
		return StatusShipped
	case StateFinished:
		return StatusDelivered
	case StateCancelled:
		return StatusCancelled
	case StateRefunded:
		return StatusRefunded
	}
	return state
}

// IsTerminalState reports whether an order can still move.
func IsTerminalState(state string) bool {
	return state == StateCancelled || state == StateRefunded || state == StateFinished
}

// Artifact kinds per order line.
const (
	ArtifactTicket = "TICKET"
	ArtifactCard   = "CARD"
	ArtifactGoods  = "GOODS"
)

type Order struct {
	DTO
	PublicCode  string      `gorm:"unique;size:20" json:"publicCode"` // ORD-XXXXXXXX
	CustomerID  *uint       `json:"customerId,omitempty"`             // null for guest checkout
	State       string      `gorm:"not null;default:'INITIAL'" json:"-"`
	Status      string      `gorm:"not null;default:'PENDING'" json:"status"`
	TotalAmount float64     `json:"totalAmount"`
	PaymentRef  string      `gorm:"index;size:40" json:"paymentRef,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Items       []OrderItem `gorm:"foreignKey:OrderId" json:"items"`
	PaidAt      *time.Time  `json:"paidAt,omitempty"`
	ShippedAt   *time.Time  `json:"shippedAt,omitempty"`
	DeliveredAt *time.Time  `json:"deliveredAt,omitempty"`
	CancelledAt *time.Time  `json:"cancelledAt,omitempty"`
}

type OrderItem struct {
	DTO
	OrderId   uint       `gorm:"index" json:"orderId"`
	Kind      string     `gorm:"not null" json:"kind"` // TICKET, CARD, GOODS
	UnitID    string     `gorm:"size:60" json:"unitId,omitempty"`
	RefID     uint       `json:"refId"` // sector / product size / plan id
	Label     string     `json:"label"`
	Quantity  int        `gorm:"not null" json:"quantity"`
	UnitPrice float64    `gorm:"not null" json:"unitPrice"`
	Discount  float64    `json:"discount"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"` // artifact validity, fixed at placement
}

// Subtotal is quantity times unit price minus the line discount.
func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity)*i.UnitPrice - i.Discount
}

// Total sums line subtotals. The stored TotalAmount must equal this once
// the order is confirmed.
func (o Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}
