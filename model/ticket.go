package model

import "time"

// Ticket record statuses.
const (
	TicketIssued    = "ISSUED"
	TicketUsed      = "USED"
	TicketExpired   = "EXPIRED"
	TicketCancelled = "CANCELLED"
)

// TicketRecord is a proof-of-purchase artifact: a match ticket or a
// membership card. The validation token redeems at most once.
type TicketRecord struct {
	DTO
	Code        string     `gorm:"size:24;uniqueIndex" json:"code"` // TKT-... / CRD-...
	Token       string     `gorm:"size:512;uniqueIndex" json:"-"`
	Kind        string     `gorm:"not null" json:"kind"` // TICKET, CARD
	OrderItemId uint       `gorm:"uniqueIndex" json:"orderItemId"`
	OrderId     uint       `gorm:"index" json:"orderId"`
	CustomerID  *uint      `json:"customerId,omitempty"`
	Status      string     `gorm:"not null;default:'ISSUED'" json:"status"`
	IssuedAt    time.Time  `json:"issuedAt"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}
