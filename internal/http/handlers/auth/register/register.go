package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/insight-aggregator/internal/http/response"
	"github.com/magabrotheeeer/insight-aggregator/internal/identity"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
)

// Request — входные данные для регистрации. BundleID — пакет, ради
// которого пользователь регистрировался (опционально): он будет
// запомнен как отложенный до подтверждения оплаты.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Gender   string `json:"gender" validate:"required,oneof=male female other"`
	BundleID string `json:"bundle_id,omitempty"`
}

// IdentityProvider регистрирует учётную запись (identity.Service).
type IdentityProvider interface {
	Register(ctx context.Context, email, pass, displayName, gender string) (*identity.Identity, error)
}

// Transitions выполняет переход Guest -> Trial (session.Transitions).
type Transitions interface {
	OnRegister(ctx context.Context, key, name, email, gender, bundleID string) error
}

// TokenMaker выпускает JWT сессии (lib/jwt.Maker).
type TokenMaker interface {
	GenerateToken(email, sessionKey string) (string, error)
}

type Handler struct {
	log         *slog.Logger
	provider    IdentityProvider
	transitions Transitions
	maker       TokenMaker
	validate    *validator.Validate
}

func New(log *slog.Logger, provider IdentityProvider, transitions Transitions, maker TokenMaker) *Handler {
	return &Handler{
		log:         log,
		provider:    provider,
		transitions: transitions,
		maker:       maker,
		validate:    validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	ident, err := h.provider.Register(r.Context(), req.Email, req.Password, req.Name, req.Gender)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			log.Error("email already registered", slog.String("email", req.Email))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("email already registered"))
			return
		}
		log.Error("registration failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register user"))
		return
	}

	sessionKey := uuid.New().String()
	if err := h.transitions.OnRegister(r.Context(), sessionKey,
		ident.DisplayName, ident.Email, ident.Gender, req.BundleID); err != nil {
		log.Error("failed to open trial session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to open session"))
		return
	}

	token, err := h.maker.GenerateToken(ident.Email, sessionKey)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to generate token"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token":       token,
		"session_key": sessionKey,
		"tier":        "trial",
	}))
}
