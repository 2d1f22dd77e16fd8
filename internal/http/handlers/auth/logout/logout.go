package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/insight-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
)

// Transitions выполняет переход в Guest (session.Transitions).
type Transitions interface {
	OnLogout(ctx context.Context, key string) error
}

type Handler struct {
	log         *slog.Logger
	transitions Transitions
}

func New(log *slog.Logger, transitions Transitions) *Handler {
	return &Handler{log: log, transitions: transitions}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

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

	if err := h.transitions.OnLogout(r.Context(), sessionKey); err != nil {
		log.Error("failed to log out", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "signed out",
	}))
}
