package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Authenticator проверяет логин и пароль.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// SessionOptions задает параметры cookie сессии.
type SessionOptions struct {
	Enabled    bool
	Key        []byte
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Sessions хранит сессии в подписанной cookie.
type Sessions struct {
	store   *sessions.CookieStore
	name    string
	enabled bool
	users   Authenticator
	logger  *zap.Logger
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Enabled       bool   `json:"enabled"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

func NewSessions(opts SessionOptions, users Authenticator, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := sessions.NewCookieStore(opts.Key)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = opts.Secure
	// Фронтенд на другом origin получает cookie в fetch только при SameSite=None,
	// а браузеры принимают None лишь вместе с Secure.
	store.Options.SameSite = http.SameSiteLaxMode
	if opts.Secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}
	store.MaxAge(int(opts.MaxAge.Seconds()))

	return &Sessions{
		store:   store,
		name:    opts.CookieName,
		enabled: opts.Enabled,
		users:   users,
		logger:  logger,
	}
}

func (s *Sessions) Routes(r chi.Router) {
	r.Post("/api/login", s.Login)
	r.Post("/api/logout", s.Logout)
	r.Get("/api/session", s.Session)
}

// Login
//
//	@Summary	Start a session
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		loginRequest	true	"Credentials"
//	@Success	200		{object}	sessionResponse
//	@Failure	401		{object}	errorResponse
//	@Router		/api/login [post]
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		var svcErr *service.Error
		if errors.As(err, &svcErr) {
			writeError(w, statusFor(svcErr.Kind), svcErr.Message)
			return
		}
		s.logger.Error("authenticate failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	session, _ := s.store.Get(r, s.name)
	session.Values["authenticated"] = true
	session.Values["user_id"] = u.ID.String()
	session.Values["username"] = u.Username
	if err := session.Save(r, w); err != nil {
		s.logger.Error("failed to save session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Info("login", zap.String("user_id", u.ID.String()))
	writeJSON(w, http.StatusOK, sessionResponse{Enabled: s.enabled, Authenticated: true, Username: u.Username})
}

// Logout
//
//	@Summary	End the session
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	successResponse
//	@Router		/api/logout [post]
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.store.Get(r, s.name)
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.logger.Warn("failed to clear session", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Session
//
//	@Summary	Report session status
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	sessionResponse
//	@Router		/api/session [get]
func (s *Sessions) Session(w http.ResponseWriter, r *http.Request) {
	username, ok := s.current(r)
	writeJSON(w, http.StatusOK, sessionResponse{Enabled: s.enabled, Authenticated: ok, Username: username})
}

// Require пропускает запрос только с действующей сессией.
// Если сессии выключены, пропускает всё.
func (s *Sessions) Require(next http.Handler) http.Handler {
	if !s.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.current(r); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Sessions) current(r *http.Request) (string, bool) {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		return "", false
	}
	if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
		return "", false
	}
	username, _ := session.Values["username"].(string)
	return username, true
}
