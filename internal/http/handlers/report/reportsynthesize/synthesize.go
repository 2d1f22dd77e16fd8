package reportsynthesize

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/insight-aggregator/internal/catalog"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
	"github.com/magabrotheeeer/insight-aggregator/internal/report"
	"github.com/magabrotheeeer/insight-aggregator/internal/wizard"
)

// SessionSource выдаёт текущую сессию по ключу (session.Store).
type SessionSource interface {
	Current(key string) models.UserSession
}

// WizardService выдаёт собранные входы завершённого мастера (wizard.Manager).
type WizardService interface {
	Finalize(sessionKey string) (string, models.PackageInputs, error)
	Clear(sessionKey string)
}

// Synthesizer запускает синтез совокупного отчёта (report.Orchestrator).
type Synthesizer interface {
	Synthesize(ctx context.Context, sessionKey string, bundle models.Bundle, inputs models.PackageInputs) (*models.CombinedReport, error)
}

type Handler struct {
	log          *slog.Logger
	store        SessionSource
	wizard       WizardService
	orchestrator Synthesizer
}

func New(log *slog.Logger, store SessionSource, wizardSvc WizardService, orchestrator Synthesizer) *Handler {
	return &Handler{
		log:          log,
		store:        store,
		wizard:       wizardSvc,
		orchestrator: orchestrator,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.synthesize"

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

	// Совокупный отчёт — единственная возможность, закрытая оплатой.
	current := h.store.Current(sessionKey)
	if current.Tier != models.TierFullAccess {
		log.Error("synthesis requires full access", slog.String("tier", string(current.Tier)))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("full access required"))
		return
	}

	bundleID, inputs, err := h.wizard.Finalize(sessionKey)
	if err != nil {
		switch {
		case errors.Is(err, wizard.ErrNoActiveWizard):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("no active wizard"))
		case errors.Is(err, wizard.ErrWizardIncomplete):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("wizard is not finished yet"))
		default:
			log.Error("failed to finalize wizard", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
		}
		return
	}

	bundle, found := catalog.ByID(bundleID)
	if !found {
		log.Error("wizard refers to unknown bundle", slog.String("bundle_id", bundleID))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	combined, err := h.orchestrator.Synthesize(r.Context(), sessionKey, bundle, inputs)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrSynthesisInFlight):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("synthesis already in flight"))
		case errors.Is(err, report.ErrStaleSession):
			render.Status(r, http.StatusGone)
			render.JSON(w, r, response.Error("session was reset, report discarded"))
		default:
			log.Error("synthesis failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
		}
		return
	}

	// Мастер очищается только после того, как синтез принял входы.
	h.wizard.Clear(sessionKey)

	render.JSON(w, r, response.StatusOKWithData(combined))
}
