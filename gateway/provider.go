package gateway

import (
	"club_manager/config"
	"club_manager/model"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// Provider builds signed payment URLs and verifies callbacks for an
// HMAC-query style provider. The secure-hash discipline: sort params,
// HMAC-SHA512 over the encoded query, compare on the way back in.
type Provider struct {
	Config model.PayConfig
}

func NewProvider() *Provider {
	return &Provider{
		Config: model.PayConfig{
			TmnCode:    config.Config("PAY_TMNCODE"),
			HashSecret: config.Config("PAY_HASHSECRET"),
			BaseURL:    config.Config("PAY_URL"),
			ReturnURL:  config.Config("APP_URL") + "/api/v1/payments/return",
			IPNURL:     config.Config("APP_URL") + "/api/v1/payments/ipn",
		},
	}
}

// CreateIntent returns the hosted payment URL for the request. The TxnRef
// is the intent reference the callback will carry back.
func (p *Provider) CreateIntent(ctx context.Context, req model.PaymentRequest) (string, error) {
	params := url.Values{}
	params.Add("pay_Version", "2.1.0")
	params.Add("pay_Command", "pay")
	params.Add("pay_TmnCode", p.Config.TmnCode)
	params.Add("pay_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Add("pay_CurrCode", req.Currency)
	params.Add("pay_CreateDate", time.Now().Format("20060102150405"))
	params.Add("pay_ExpireDate", time.Now().Add(15*time.Minute).Format("20060102150405"))
	params.Add("pay_IpAddr", req.IPAddr)
	params.Add("pay_OrderInfo", req.OrderInfo)
	params.Add("pay_ReturnUrl", p.Config.ReturnURL)
	params.Add("pay_TxnRef", req.TxnRef)

	query := params.Encode()
	hash := p.generateHash(query)
	return p.Config.BaseURL + "?" + query + "&pay_SecureHash=" + hash, nil
}

// VerifyReturn checks the browser return-URL callback.
func (p *Provider) VerifyReturn(query url.Values) model.PaymentResponse {
	return p.verify(query)
}

// VerifyIPN checks the server-to-server notification.
func (p *Provider) VerifyIPN(query url.Values) model.PaymentResponse {
	return p.verify(query)
}

func (p *Provider) verify(query url.Values) model.PaymentResponse {
	secureHash := query.Get("pay_SecureHash")
	query.Del("pay_SecureHash")

	expected := p.generateHash(query.Encode())
	if !hmac.Equal([]byte(secureHash), []byte(expected)) {
		return model.PaymentResponse{IsSuccess: false, Message: "invalid hash"}
	}

	if query.Get("pay_ResponseCode") == "00" {
		amount, _ := strconv.ParseInt(query.Get("pay_Amount"), 10, 64)
		amount /= 100
		return model.PaymentResponse{
			IsSuccess: true,
			TxnRef:    query.Get("pay_TxnRef"),
			Amount:    amount,
			Status:    "PAID",
		}
	}

	return model.PaymentResponse{
		IsSuccess: false,
		TxnRef:    query.Get("pay_TxnRef"),
		Message:   "payment failed: code " + query.Get("pay_ResponseCode"),
	}
}

func (p *Provider) generateHash(data string) string {
	h := hmac.New(sha512.New, []byte(p.Config.HashSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
