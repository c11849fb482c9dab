package gateway

import (
	"club_manager/model"
	"context"
	"net/url"
)

// PaymentGateway is the external payment capability: it turns an order
// into a redirectable payment intent and verifies the asynchronous
// confirmation callbacks the provider sends back.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req model.PaymentRequest) (string, error)
	VerifyReturn(query url.Values) model.PaymentResponse
	VerifyIPN(query url.Values) model.PaymentResponse
}
