package model

type PayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
	IPNURL     string
}

type PaymentRequest struct {
	Amount    int64
	Currency  string
	OrderInfo string
	TxnRef    string
	IPAddr    string
}

type PaymentResponse struct {
	IsSuccess bool
	TxnRef    string
	Amount    int64
	Status    string
	Message   string
}
