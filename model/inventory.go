package model

import (
	"fmt"
	"time"
)

// InventoryUnit is one sellable pool: a match sector or a product size.
// Invariant: Reserved + Committed <= Total, enforced under a row lock.
type InventoryUnit struct {
	UnitID    string    `gorm:"primaryKey;size:60" json:"unitId"`
	Total     int       `gorm:"not null" json:"total"`
	Reserved  int       `gorm:"not null;default:0" json:"reserved"`
	Committed int       `gorm:"not null;default:0" json:"committed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Available is what a new reservation can still claim.
func (u InventoryUnit) Available() int {
	return u.Total - u.Reserved - u.Committed
}

// Reservation is a pending claim on one unit, tied to a hold (the order
// public code). Released or committed exactly once; swept after ExpiresAt.
type Reservation struct {
	DTO
	UnitID    string    `gorm:"index;size:60" json:"unitId"`
	HoldID    string    `gorm:"index;size:20" json:"holdId"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
}

func SectorUnitID(matchID, sectorID uint) string {
	return fmt.Sprintf("sector:%d:%d", matchID, sectorID)
}

func SizeUnitID(productSizeID uint) string {
	return fmt.Sprintf("size:%d", productSizeID)
}
