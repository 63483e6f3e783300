package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"templatehub/domain/core/entities"
	"templatehub/pkg/common"
	pkgerrors "templatehub/pkg/errors"
)

// UserService is what the user endpoints need.
type UserService interface {
	Register(ctx context.Context, reg entities.Registration) (*entities.User, error)
	Authenticate(ctx context.Context, username, password string) (*entities.User, error)
	Get(ctx context.Context, id string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string, projection []string) (*entities.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateToken(userID, username, orgID string) (string, error)
}

// LoginLimiter throttles login attempts.
type LoginLimiter interface {
	Allow(ctx context.Context, ip, username string) (bool, error)
	Succeeded(ctx context.Context, username string) error
}

// UserHandler serves registration, login and profile reads.
type UserHandler struct {
	users   UserService
	tokens  TokenIssuer
	limiter LoginLimiter
	errs    *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

func NewUserHandler(users UserService, tokens TokenIssuer, limiter LoginLimiter, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, limiter: limiter, errs: errs, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user"`
}

// Register handles POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entities.Registration
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, "user registered", user)
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := common.ParseJSONBody(w, r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		h.errs.Handle(w, r, pkgerrors.NewValidationError("username and password are required"))
		return
	}

	if h.limiter != nil {
		ok, err := h.limiter.Allow(r.Context(), r.RemoteAddr, req.Username)
		if err != nil {
			h.errs.Handle(w, r, err)
			return
		}
		if !ok {
			h.errs.Handle(w, r, pkgerrors.NewTooManyRequestsError("too many login attempts"))
			return
		}
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	token, err := h.tokens.GenerateToken(user.ID, user.Username, user.OrgID)
	if err != nil {
		h.errs.Handle(w, r, pkgerrors.NewInternalError("failed to issue token").WithCause(err))
		return
	}
	if h.limiter != nil {
		if err := h.limiter.Succeeded(r.Context(), req.Username); err != nil {
			h.logger.Warn("Failed to clear login attempts", zap.Error(err))
		}
	}
	common.RespondOK(w, "logged in", loginResponse{Token: token, User: user})
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := currentUser(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), caller.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", user)
}

// GetByUsername handles GET /users/{username}. The optional fields query
// parameter is a comma separated projection.
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	var projection []string
	if fields := r.URL.Query().Get("fields"); fields != "" {
		for _, f := range strings.Split(fields, ",") {
			f = strings.TrimSpace(f)
			if f == "password" {
				continue
			}
			if f != "" {
				projection = append(projection, f)
			}
		}
	}
	user, err := h.users.GetByUsername(r.Context(), chi.URLParam(r, "username"), projection)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondOK(w, "", user)
}
