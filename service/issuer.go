package service

import (
	"club_manager/model"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Issuer mints proof-of-purchase records after an order confirms. Codes
// are unguessable: the QR token is a signed claim over a crypto-random id,
// never a sequential key.
type Issuer struct {
	tickets TicketStore
	secret  []byte
	clock   clockwork.Clock
}

func NewIssuer(tickets TicketStore, secret []byte, clk clockwork.Clock) *Issuer {
	return &Issuer{tickets: tickets, secret: secret, clock: clk}
}

// Issue creates the record for one order line, or returns the existing one
// if the line was already issued (retried confirmation). GOODS lines carry
// no artifact and yield nil.
func (i *Issuer) Issue(ctx context.Context, order *model.Order, item *model.OrderItem) (*model.TicketRecord, error) {
	if item.Kind == model.ArtifactGoods {
		return nil, nil
	}

	existing, err := i.tickets.ByOrderItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	prefix := "TKT-"
	if item.Kind == model.ArtifactCard {
		prefix = "CRD-"
	}
	code := prefix + uuid.New().String()[:10]

	token, err := i.signToken(code)
	if err != nil {
		return nil, err
	}

	rec := &model.TicketRecord{
		Code:        code,
		Token:       token,
		Kind:        item.Kind,
		OrderItemId: item.ID,
		OrderId:     order.ID,
		CustomerID:  order.CustomerID,
		Status:      model.TicketIssued,
		IssuedAt:    i.clock.Now(),
		ExpiresAt:   item.ExpiresAt,
	}
	if err := i.tickets.Create(ctx, rec); err != nil {
		// Unique index on order item id; a racing duplicate loses here,
		// so hand back whatever won.
		if winner, lookupErr := i.tickets.ByOrderItem(ctx, item.ID); lookupErr == nil && winner != nil {
			return winner, nil
		}
		return nil, err
	}
	return rec, nil
}

// CancelForOrder revokes every artifact of a refunded order.
func (i *Issuer) CancelForOrder(ctx context.Context, orderID uint) error {
	return i.tickets.CancelByOrder(ctx, orderID, i.clock.Now())
}

func (i *Issuer) signToken(code string) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("token nonce: %w", err)
	}
	claims := jwt.RegisteredClaims{
		Subject: code,
		ID:      base64.RawURLEncoding.EncodeToString(nonce),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
