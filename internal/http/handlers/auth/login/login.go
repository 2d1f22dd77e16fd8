package login

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
	"github.com/magabrotheeeer/insight-aggregator/internal/models"
	"github.com/magabrotheeeer/insight-aggregator/internal/session"
)

// Request — входные данные для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// IdentityProvider проверяет учётные данные (identity.Service).
type IdentityProvider interface {
	Login(ctx context.Context, email, pass string) (*identity.Identity, error)
}

// SessionStore сверяет сессию с подтверждённой личностью (session.Store).
type SessionStore interface {
	Reconcile(ctx context.Context, key string, event session.IdentityEvent) error
	Current(key string) models.UserSession
}

// TokenMaker выпускает JWT сессии (lib/jwt.Maker).
type TokenMaker interface {
	GenerateToken(email, sessionKey string) (string, error)
}

type Handler struct {
	log      *slog.Logger
	provider IdentityProvider
	store    SessionStore
	maker    TokenMaker
	validate *validator.Validate
}

func New(log *slog.Logger, provider IdentityProvider, store SessionStore, maker TokenMaker) *Handler {
	return &Handler{
		log:      log,
		provider: provider,
		store:    store,
		maker:    maker,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	ident, err := h.provider.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			log.Error("invalid credentials", slog.String("email", req.Email))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid email or password"))
			return
		}
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	sessionKey := uuid.New().String()
	if err := h.store.Reconcile(r.Context(), sessionKey, session.IdentityEvent{
		Kind:        session.SignedIn,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
	}); err != nil {
		log.Error("failed to reconcile session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	token, err := h.maker.GenerateToken(ident.Email, sessionKey)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to generate token"))
		return
	}

	current := h.store.Current(sessionKey)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token":       token,
		"session_key": sessionKey,
		"tier":        string(current.Tier),
	}))
}
