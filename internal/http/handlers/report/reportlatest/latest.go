package reportlatest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/insight-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
	"github.com/magabrotheeeer/insight-aggregator/internal/report"
)

// ReportSource выдаёт последний готовый отчёт сессии (report.Orchestrator).
type ReportSource interface {
	Latest(sessionKey string) (*models.CombinedReport, error)
}

type Handler struct {
	log     *slog.Logger
	reports ReportSource
}

func New(log *slog.Logger, reports ReportSource) *Handler {
	return &Handler{log: log, reports: reports}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.latest"

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

	combined, err := h.reports.Latest(sessionKey)
	if err != nil {
		if errors.Is(err, report.ErrNoReport) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("no report for session"))
			return
		}
		log.Error("failed to load report", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(combined))
}
