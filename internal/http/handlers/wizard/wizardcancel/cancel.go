package wizardcancel

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/insight-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
)

// WizardService отменяет мастер сессии (wizard.Manager).
type WizardService interface {
	Cancel(sessionKey string)
}

type Handler struct {
	log    *slog.Logger
	wizard WizardService
}

func New(log *slog.Logger, wizard WizardService) *Handler {
	return &Handler{log: log, wizard: wizard}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wizard.cancel"

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

	h.wizard.Cancel(sessionKey)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "wizard cancelled",
	}))
}
