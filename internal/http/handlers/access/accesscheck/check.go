package accesscheck

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
	libjwt "github.com/magabrotheeeer/insight-aggregator/internal/lib/jwt"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
	"github.com/magabrotheeeer/insight-aggregator/internal/session"
)

// SessionSource выдаёт текущую сессию по ключу (session.Store).
type SessionSource interface {
	Current(key string) models.UserSession
}

// Handler решает, в каком режиме сессия видит возможность: полностью
// или как превью. Маршрут открыт и гостям: для них превью и есть
// витрина, поэтому отсутствие токена — не ошибка.
type Handler struct {
	log   *slog.Logger
	store SessionSource
	maker libjwt.Maker
}

func New(log *slog.Logger, store SessionSource, maker libjwt.Maker) *Handler {
	return &Handler{log: log, store: store, maker: maker}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	capabilityID := chi.URLParam(r, "capabilityID")
	if capabilityID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("capability id is required"))
		return
	}

	current := models.GuestSession()
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		claims, err := h.maker.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err == nil {
			current = h.store.Current(claims.SessionKey)
		}
	}

	decision := session.Decide(current, capabilityID)
	log.Info("access decided",
		slog.String("capability", capabilityID),
		slog.String("tier", string(current.Tier)),
		slog.String("decision", string(decision)))

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"capability": capabilityID,
		"tier":       string(current.Tier),
		"decision":   string(decision),
	}))
}
