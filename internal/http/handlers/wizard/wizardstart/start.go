package wizardstart

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/insight-aggregator/internal/catalog"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

// Request — входные данные для запуска мастера.
type Request struct {
	BundleID string `json:"bundle_id" validate:"required"`
}

// WizardService открывает мастер сессии (wizard.Manager).
type WizardService interface {
	StartForBundle(sessionKey string, bundle models.Bundle, name, gender string) []models.WizardStep
}

// SessionSource выдаёт текущую сессию по ключу (session.Store).
type SessionSource interface {
	Current(key string) models.UserSession
}

type Handler struct {
	log      *slog.Logger
	wizard   WizardService
	store    SessionSource
	validate *validator.Validate
}

func New(log *slog.Logger, wizard WizardService, store SessionSource) *Handler {
	return &Handler{
		log:      log,
		wizard:   wizard,
		store:    store,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wizard.start"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessionKey, ok := r.Context().Value(middlewarectx.SessionKey).(string)
	if !ok || sessionKey == "" {
		log.Error("session identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("session identification missing"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	bundle, found := catalog.ByID(req.BundleID)
	if !found {
		log.Error("unknown bundle", slog.String("bundle_id", req.BundleID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("unknown bundle"))
		return
	}

	current := h.store.Current(sessionKey)
	steps := h.wizard.StartForBundle(sessionKey, bundle, current.Name, current.Gender)

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"bundle_id": bundle.ID,
		"steps":     steps,
	}))
}
