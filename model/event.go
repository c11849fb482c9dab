package model

import "time"

// Outbox event types.
const (
	EventOrderConfirmed = "order.confirmed"
	EventOrderCancelled = "order.cancelled"
	EventOrderRefunded  = "order.refunded"
	EventTicketIssued   = "ticket.issued"
)

// Outbox event statuses.
const (
	OutboxPending   = "PENDING"
	OutboxPublished = "PUBLISHED"
)

// OutboxEvent is a durable domain event row. A publisher loop drains
// PENDING rows to the bus; a row is marked PUBLISHED only after a
// successful publish, so delivery is at-least-once across restarts.
type OutboxEvent struct {
	DTO
	EventType   string     `gorm:"not null;index" json:"eventType"`
	Payload     string     `gorm:"type:text" json:"payload"`
	Status      string     `gorm:"not null;default:'PENDING';index" json:"status"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}
