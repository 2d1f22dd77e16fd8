package paymentprovider

import "time"

// Amount представляет денежную сумму.
type Amount struct {
	Value    string `json:"value"`    // сумма, например "200.00"
	Currency string `json:"currency"` // валюта, например "RUB"
}

// CreatePaymentRequest представляет запрос на создание платежа.
type CreatePaymentRequest struct {
	Amount       Amount            `json:"amount"`
	PaymentToken string            `json:"payment_token"`      // токен карты (payment_method_token)
	Metadata     map[string]string `json:"metadata,omitempty"` // session_key, bundle_id, email
}

// CreatePaymentResponse представляет ответ на создание платежа.
type CreatePaymentResponse struct {
	ID        string    `json:"id"`     // ID платежа в шлюзе
	Status    string    `json:"status"` // статус платежа, например "pending"
	Amount    Amount    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
