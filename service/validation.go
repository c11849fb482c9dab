package service

import (
	"club_manager/model"
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// Validation failure reasons surfaced to the check-in client.
const (
	ReasonNotFound        = "NOT_FOUND"
	ReasonAlreadyRedeemed = "ALREADY_REDEEMED"
	ReasonExpired         = "EXPIRED"
)

type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Reason string              `json:"reason,omitempty"`
	Record *model.TicketRecord `json:"record,omitempty"`
}

// Validator verifies presented QR tokens and marks one-time redemption.
type Validator struct {
	tickets TicketStore
	secret  []byte
	clock   clockwork.Clock
}

func NewValidator(tickets TicketStore, secret []byte, clk clockwork.Clock) *Validator {
	return &Validator{tickets: tickets, secret: secret, clock: clk}
}

// Validate checks the token signature, looks up the record and redeems it
// atomically. A second presentation of the same token always comes back
// ALREADY_REDEEMED, even when two validations race: the store flip is a
// guarded update and only one caller wins it.
func (v *Validator) Validate(ctx context.Context, token string) (*ValidationResult, error) {
	code, ok := v.verifyToken(token)
	if !ok {
		return &ValidationResult{Valid: false, Reason: ReasonNotFound}, nil
	}

	rec, err := v.tickets.ByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Status == model.TicketCancelled {
		return &ValidationResult{Valid: false, Reason: ReasonNotFound}, nil
	}

	now := v.clock.Now()
	if rec.Status == model.TicketExpired || (rec.ExpiresAt != nil && now.After(*rec.ExpiresAt)) {
		return &ValidationResult{Valid: false, Reason: ReasonExpired, Record: rec}, nil
	}
	if rec.Status == model.TicketUsed {
		return &ValidationResult{Valid: false, Reason: ReasonAlreadyRedeemed, Record: rec}, nil
	}

	won, err := v.tickets.Redeem(ctx, code, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return &ValidationResult{Valid: false, Reason: ReasonAlreadyRedeemed, Record: rec}, nil
	}

	rec.Status = model.TicketUsed
	rec.UsedAt = &now
	return &ValidationResult{Valid: true, Record: rec}, nil
}

func (v *Validator) verifyToken(token string) (string, bool) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
