package model

import "time"

type Match struct {
	DTO
	PublicCode string    `gorm:"unique;size:20" json:"publicCode"`
	Opponent   string    `gorm:"not null" json:"opponent"`
	Venue      string    `json:"venue"`
	KickoffAt  time.Time `gorm:"not null" json:"kickoffAt"`
	Sectors    []Sector  `gorm:"foreignKey:MatchId" json:"sectors,omitempty"`
}

type Sector struct {
	DTO
	MatchId  uint    `gorm:"index" json:"matchId"`
	Name     string  `gorm:"not null" json:"name"`
	Capacity int     `gorm:"not null" json:"capacity"`
	Price    float64 `gorm:"not null" json:"price"`
}

type Product struct {
	DTO
	Name        string        `gorm:"not null" json:"name"`
	Description string        `json:"description"`
	Sizes       []ProductSize `gorm:"foreignKey:ProductId" json:"sizes,omitempty"`
}

type ProductSize struct {
	DTO
	ProductId uint    `gorm:"index" json:"productId"`
	Size      string  `gorm:"not null" json:"size"`
	Stock     int     `gorm:"not null" json:"stock"`
	Price     float64 `gorm:"not null" json:"price"`

	Product Product `gorm:"foreignKey:ProductId" json:"-"`
}

type MembershipPlan struct {
	DTO
	Name           string  `gorm:"not null" json:"name"`
	Price          float64 `gorm:"not null" json:"price"`
	ValidityMonths int     `gorm:"not null;default:12" json:"validityMonths"`
}
