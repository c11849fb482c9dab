package service

import "errors"

var (
	ErrUnknownUnit        = errors.New("unknown inventory unit")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
