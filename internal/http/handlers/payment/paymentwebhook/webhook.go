package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
)

// Transitions выполняет переход на полный доступ (session.Transitions).
type Transitions interface {
	OnPurchaseConfirmed(ctx context.Context, key string) error
}

type Handler struct {
	log           *slog.Logger
	transitions   Transitions
	webhookSecret string // Секрет для проверки подписи
}

func New(log *slog.Logger, transitions Transitions, secret string) *Handler {
	return &Handler{
		log:           log,
		transitions:   transitions,
		webhookSecret: secret,
	}
}

type Payload struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`     // payment ID
		Status string `json:"status"` // статус платежа
		Amount struct {
			Value    string `json:"value"`    // сумма в строке, например "100.00"
			Currency string `json:"currency"` // валюта
		} `json:"amount"`
		Metadata map[string]string `json:"metadata"` // session_key, bundle_id, email
	} `json:"object"`
}

// Проверка подписи webhook (X-Api-Signature)
func (h *Handler) verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Проверка подписи (в заголовке X-Api-Signature)
	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(h.webhookSecret, body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	const (
		PaymentSucceeded = "payment.succeeded"
		PaymentCanceled  = "payment.canceled"
		PaymentRefunded  = "payment.refunded"
	)

	switch strings.ToLower(payload.Event) {
	case PaymentSucceeded:
		sessionKey := payload.Object.Metadata["session_key"]
		if sessionKey == "" {
			log.Error("webhook payload has no session_key",
				slog.String("payment_id", payload.Object.ID))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.transitions.OnPurchaseConfirmed(r.Context(), sessionKey); err != nil {
			log.Error("failed to confirm purchase", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	case PaymentCanceled, PaymentRefunded:
		// Отмена и возврат не двигают уровень доступа: сессия остаётся
		// на том tier, где была до попытки оплаты.
		log.Info("payment did not complete",
			slog.String("event", payload.Event),
			slog.String("payment_id", payload.Object.ID))
	default:
		log.Info("ignored webhook event", slog.String("event", payload.Event))
	}

	log.Info("webhook processed successfully", slog.String("event", payload.Event), slog.String("payment_id", payload.Object.ID))
	w.WriteHeader(http.StatusOK)
}
