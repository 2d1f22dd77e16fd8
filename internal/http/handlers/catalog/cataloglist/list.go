package cataloglist

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/insight-aggregator/internal/catalog"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
)

// Handler отдаёт каталог пакетов. Каталог открыт всем, включая гостей:
// просмотр витрины не требует ни входа, ни оплаты.
type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	bundles := catalog.All()
	log.Info("catalog listed", slog.Int("bundles", len(bundles)))

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"bundles": bundles,
	}))
}
