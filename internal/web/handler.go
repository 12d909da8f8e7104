// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/labhub/labhub/internal/auth"
	"github.com/labhub/labhub/pkg/errutil"
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, attempt auth.LoginAttempt) (auth.Identity, error)
}

// Provisioner resolves a token identity to a hub user, creating it on first use.
type Provisioner interface {
	ResolveOrCreate(ctx context.Context, username string) (*auth.User, error)
}

// UserLookup finds existing hub users.
type UserLookup interface {
	GetByName(ctx context.Context, name string) (*auth.User, error)
}

// LoginRecorder counts token-login outcomes.
type LoginRecorder interface {
	TokenLogin(outcome auth.LoginOutcome)
}

// CookieConfig controls the hub session cookie.
type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Validator   Authenticator
	Provisioner Provisioner
	Users       UserLookup
	Sessions    auth.SessionAuthority
	Next        *NextPolicy
	Recorder    LoginRecorder
	Logger      *slog.Logger
}

// Handler serves the hub login surface. Every outcome is a redirect.
type Handler struct {
	validator   Authenticator
	provisioner Provisioner
	users       UserLookup
	sessions    auth.SessionAuthority
	next        *NextPolicy
	recorder    LoginRecorder
	logger      *slog.Logger
	loginURL    string
	cookie      CookieConfig
}

// NewHandler creates a login handler. loginURL is where every failure lands.
func NewHandler(deps Deps, loginURL string, cookie CookieConfig) (*Handler, error) {
	switch {
	case deps.Validator == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("validator is required")
	case deps.Provisioner == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("provisioner is required")
	case deps.Users == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("user lookup is required")
	case deps.Sessions == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("session authority is required")
	case deps.Next == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("next policy is required")
	case cookie.Name == "":
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("cookie name is required")
	}
	if cookie.Path == "" {
		cookie.Path = "/hub/"
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Handler{
		validator:   deps.Validator,
		provisioner: deps.Provisioner,
		users:       deps.Users,
		sessions:    deps.Sessions,
		next:        deps.Next,
		recorder:    recorder,
		logger:      logger,
		loginURL:    loginURL,
		cookie:      cookie,
	}, nil
}

// RegisterRoutes mounts the login surface on e.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/hub/token-login", h.TokenLogin)
	e.POST("/hub/login", h.Login)
	e.POST("/hub/logout", h.Logout)
}

// TokenLogin handles GET /hub/token-login?token=...&next=...
func (h *Handler) TokenLogin(c echo.Context) error {
	attempt := auth.LoginAttempt{Token: c.QueryParam("token")}
	return h.login(c, attempt, c.QueryParam("next"))
}

// Login handles the hub's own login form post.
func (h *Handler) Login(c echo.Context) error {
	attempt := auth.LoginAttempt{
		Token:    c.FormValue("token"),
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}
	return h.login(c, attempt, c.FormValue("next"))
}

// Logout revokes the current session and clears the cookie.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if cookie, err := c.Cookie(h.cookie.Name); err == nil && cookie.Value != "" {
		if err := h.sessions.Revoke(ctx, cookie.Value); err != nil {
			errutil.LogError(ctx, h.logger, "session revoke failed", err)
		}
	}
	h.clearCookie(c)
	return c.Redirect(http.StatusSeeOther, h.loginURL)
}

func (h *Handler) login(c echo.Context, attempt auth.LoginAttempt, next string) error {
	ctx := c.Request().Context()
	tokenRequest := attempt.Token != ""

	identity, err := h.validator.Authenticate(ctx, attempt)
	if err != nil {
		h.record(tokenRequest, auth.LoginRejected)
		return c.Redirect(http.StatusSeeOther, h.loginURL)
	}

	user, err := h.resolve(ctx, identity)
	if auth.ReasonOf(err) == auth.ReasonInvalidUsername {
		h.record(tokenRequest, auth.LoginRejected)
		return c.Redirect(http.StatusSeeOther, h.loginURL)
	}
	if err != nil {
		errutil.LogError(ctx, h.logger, "login user resolution failed", err)
		h.record(tokenRequest, auth.LoginError)
		return c.Redirect(http.StatusSeeOther, h.loginURL)
	}

	token, session, err := h.sessions.Issue(ctx, user)
	if err != nil {
		errutil.LogError(ctx, h.logger, "session issue failed", err)
		h.record(tokenRequest, auth.LoginError)
		return c.Redirect(http.StatusSeeOther, h.loginURL)
	}

	h.setCookie(c, token, session.ExpiresAt)
	h.record(tokenRequest, auth.LoginOK)
	return c.Redirect(http.StatusSeeOther, h.next.Resolve(next))
}

// resolve maps an identity to a hub user. Token identities are provisioned;
// password identities must already be registered.
func (h *Handler) resolve(ctx context.Context, identity auth.Identity) (*auth.User, error) {
	if identity.Method == auth.MethodToken {
		return h.provisioner.ResolveOrCreate(ctx, identity.Username)
	}
	user, err := h.users.GetByName(ctx, identity.Username)
	if err != nil {
		return nil, oops.Code("WEB_USER_NOT_REGISTERED").With("username", identity.Username).Wrap(err)
	}
	return user, nil
}

func (h *Handler) record(tokenRequest bool, outcome auth.LoginOutcome) {
	if tokenRequest {
		h.recorder.TokenLogin(outcome)
	}
}

func (h *Handler) setCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     h.cookie.Path,
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type nopRecorder struct{}

func (nopRecorder) TokenLogin(auth.LoginOutcome) {}
