package paymentwebhook_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/payment/paymentwebhook"
)

const webhookSecret = "test-secret"

type TransitionsMock struct {
	mock.Mock
}

func (m *TransitionsMock) OnPurchaseConfirmed(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler(t *testing.T) {
	succeededBody := `{"event":"payment.succeeded","object":{"id":"pay-1","status":"succeeded","metadata":{"session_key":"key-1","bundle_id":"inner-compass"}}}`

	tests := []struct {
		name           string
		body           string
		signature      string
		wantStatusCode int
		wantConfirm    bool
	}{
		{
			name:           "подтверждение покупки двигает сессию",
			body:           succeededBody,
			signature:      sign(succeededBody),
			wantStatusCode: http.StatusOK,
			wantConfirm:    true,
		},
		{
			name:           "без подписи запрос отклоняется",
			body:           succeededBody,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "чужая подпись отклоняется",
			body:           succeededBody,
			signature:      "Zm9yZ2VkLXNpZ25hdHVyZQ==",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "отменённый платёж не двигает сессию",
			body:           `{"event":"payment.canceled","object":{"id":"pay-2","metadata":{"session_key":"key-1"}}}`,
			signature:      sign(`{"event":"payment.canceled","object":{"id":"pay-2","metadata":{"session_key":"key-1"}}}`),
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "успех без session_key — плохой запрос",
			body:           `{"event":"payment.succeeded","object":{"id":"pay-3","metadata":{}}}`,
			signature:      sign(`{"event":"payment.succeeded","object":{"id":"pay-3","metadata":{}}}`),
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "незнакомое событие игнорируется",
			body:           `{"event":"payment.waiting_for_capture","object":{"id":"pay-4"}}`,
			signature:      sign(`{"event":"payment.waiting_for_capture","object":{"id":"pay-4"}}`),
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transitions := new(TransitionsMock)
			if tt.wantConfirm {
				transitions.On("OnPurchaseConfirmed", mock.Anything, "key-1").Return(nil).Once()
			}

			handler := paymentwebhook.New(newNoopLogger(), transitions, webhookSecret)
			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("X-Api-Signature", tt.signature)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			transitions.AssertExpectations(t)
			if !tt.wantConfirm {
				transitions.AssertNotCalled(t, "OnPurchaseConfirmed", mock.Anything, mock.Anything)
			}
		})
	}
}
