package model

type PlaceOrderLineInput struct {
	ProductSizeID uint    `json:"productSizeId" validate:"required,gt=0"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
	Discount      float64 `json:"discount" validate:"omitempty,gte=0"`
}

type PlaceOrderInput struct {
	CustomerID *uint                 `json:"customerId" validate:"omitempty,gt=0"`
	Lines      []PlaceOrderLineInput `json:"lines" validate:"required,min=1,dive"`
	Notes      string                `json:"notes" validate:"omitempty,max=500"`
}

type PurchaseTicketInput struct {
	MatchID    uint  `json:"matchId" validate:"required,gt=0"`
	SectorID   uint  `json:"sectorId" validate:"required,gt=0"`
	Quantity   int   `json:"quantity" validate:"required,gt=0,lte=10"`
	CustomerID *uint `json:"customerId" validate:"omitempty,gt=0"`
}

type PurchaseMembershipInput struct {
	PlanID     uint  `json:"planId" validate:"required,gt=0"`
	CustomerID *uint `json:"customerId" validate:"omitempty,gt=0"`
}

type ValidateTokenInput struct {
	Token string `json:"token" validate:"required"`
}

type ChangeOrderStateInput struct {
	State string `json:"state" validate:"required,oneof=SHIPPED DELIVERED REFUNDED CANCELLED"`
}
