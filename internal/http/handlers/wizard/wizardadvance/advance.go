package wizardadvance

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/insight-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
	"github.com/magabrotheeeer/insight-aggregator/internal/wizard"
)

// Request — ответ пользователя на текущий шаг мастера. Изображение
// передаётся как base64 в поле image.
type Request struct {
	StepID string            `json:"step_id"`
	Birth  *models.BirthData `json:"birth,omitempty"`
	Image  []byte            `json:"image,omitempty"`
	Text   string            `json:"text,omitempty"`
}

// WizardService принимает ответы на шаги (wizard.Manager).
type WizardService interface {
	Advance(sessionKey, stepID string, value models.StepValue) error
}

type Handler struct {
	log    *slog.Logger
	wizard WizardService
}

func New(log *slog.Logger, wizard WizardService) *Handler {
	return &Handler{log: log, wizard: wizard}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.wizard.advance"

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
	if req.StepID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("step_id is required"))
		return
	}

	err := h.wizard.Advance(sessionKey, req.StepID, models.StepValue{
		Birth: req.Birth,
		Image: req.Image,
		Text:  req.Text,
	})
	if err != nil {
		var verr *wizard.ValidationError
		switch {
		case errors.As(err, &verr):
			// Невалидный ответ не двигает мастер: шаг остаётся текущим.
			log.Error("step value rejected", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(verr.Error()))
		case errors.Is(err, wizard.ErrNoActiveWizard):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("no active wizard"))
		case errors.Is(err, wizard.ErrWizardFinished), errors.Is(err, wizard.ErrUnexpectedStep):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to advance wizard", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"step_id": req.StepID,
		"message": "step accepted",
	}))
}
