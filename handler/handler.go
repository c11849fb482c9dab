package handler

import (
	"club_manager/gateway"
	"club_manager/service"

	"github.com/redis/go-redis/v9"
)

// Handler groups the exposed operations over explicit service
// dependencies; no package-level mutable state.
type Handler struct {
	Orders    *service.OrderService
	Validator *service.Validator
	Ledger    *service.Ledger
	Gateway   gateway.PaymentGateway
	Redis     *redis.Client
}

func New(orders *service.OrderService, validator *service.Validator, ledger *service.Ledger, gw gateway.PaymentGateway, rdb *redis.Client) *Handler {
	return &Handler{
		Orders:    orders,
		Validator: validator,
		Ledger:    ledger,
		Gateway:   gw,
		Redis:     rdb,
	}
}
