// Package paymentcreate обрабатывает создание платежей за пакеты.
package paymentcreate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/insight-aggregator/internal/catalog"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/paymentprovider"
)

// CreatePaymentRequestApp представляет запрос на оплату пакета.
type CreatePaymentRequestApp struct {
	BundleID           string `json:"bundle_id" validate:"required"`
	PaymentMethodToken string `json:"payment_method_token" validate:"required"`
	Currency           string `json:"currency" validate:"required,oneof=RUB USD"`
}

// ProviderClient определяет интерфейс для работы с платежным провайдером.
type ProviderClient interface {
	CreatePayment(ctx context.Context, reqParams paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error)
}

// Transitions запоминает выбранный пакет до подтверждения оплаты
// (session.Transitions).
type Transitions interface {
	SelectBundle(key, bundleID string) error
}

// Handler обрабатывает запросы на создание платежей.
type Handler struct {
	log            *slog.Logger
	providerClient ProviderClient
	transitions    Transitions
	validate       *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, providerClient ProviderClient, transitions Transitions) *Handler {
	return &Handler{
		log:            log,
		providerClient: providerClient,
		transitions:    transitions,
		validate:       validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать платеж
// @Description Создает платеж за пакет; уровень доступа меняется только после webhook подтверждения
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body CreatePaymentRequestApp true "Данные для создания платежа"
// @Success 200 {object} paymentprovider.CreatePaymentResponse "Успешное создание платежа"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Неизвестный пакет"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании платежа"
// @Router /payments/create [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"
	log := h.log.With(slog.String("op", op))

	var req CreatePaymentRequestApp
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sessionKey, ok := r.Context().Value(middlewarectx.SessionKey).(string)
	if !ok || sessionKey == "" {
		log.Error("session key not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	email, _ := r.Context().Value(middlewarectx.Email).(string)

	bundle, found := catalog.ByID(req.BundleID)
	if !found {
		log.Error("unknown bundle", slog.String("bundle_id", req.BundleID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("unknown bundle"))
		return
	}
	price, found := bundle.Prices[req.Currency]
	if !found {
		log.Error("bundle has no price in currency", slog.String("currency", req.Currency))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("bundle has no price in requested currency"))
		return
	}

	if err := h.transitions.SelectBundle(sessionKey, bundle.ID); err != nil {
		log.Error("failed to remember selected bundle", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	paymentReq := paymentprovider.CreatePaymentRequest{
		PaymentToken: req.PaymentMethodToken,
		Amount: paymentprovider.Amount{
			Value:    fmt.Sprintf("%d.%02d", price/100, price%100),
			Currency: req.Currency,
		},
		Metadata: map[string]string{
			"session_key": sessionKey,
			"bundle_id":   bundle.ID,
			"email":       email,
		},
	}

	paymentResp, err := h.providerClient.CreatePayment(r.Context(), paymentReq)
	if err != nil {
		log.Error("failed to create payment from provider", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("payment provider error"))
		return
	}

	log.Info("success to create payment", slog.Any("payment-resp", paymentResp))
	render.JSON(w, r, paymentResp)
}
