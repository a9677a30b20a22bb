package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel error matching
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/web-storefront/internal/service"
)

// refreshCookieName is the HttpOnly cookie carrying the refresh token for
// browser clients. It is scoped to the auth path so it is only ever sent
// to the refresh/logout endpoints.
const refreshCookieName = "rt"

const authPath = "/v1/auth"

// AuthHandler exposes the token lifecycle over HTTP.
type AuthHandler struct {
	Svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Svc: svc}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
type loginReq struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`
}
type refreshReq struct {
	Token string `json:"token"`
}
type logoutReq struct {
	RefreshToken string `json:"refreshToken"`
	AccessToken  string `json:"accessToken"`
}

type registerResp struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
type loginResp struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	tokenResp
}
type tokenResp struct {
	TokenType        string `json:"tokenType"`
	AccessToken      string `json:"accessToken"`
	AccessExpiresIn  int64  `json:"accessTokenExpiresIn"`
	RefreshToken     string `json:"refreshToken"`
	RefreshExpiresIn int64  `json:"refreshTokenExpiresIn"`
}

func toTokenResp(p service.TokenPair) tokenResp {
	return tokenResp{
		TokenType:        p.TokenType,
		AccessToken:      p.AccessToken,
		AccessExpiresIn:  p.AccessExpiresIn,
		RefreshToken:     p.RefreshToken,
		RefreshExpiresIn: p.RefreshExpiresIn,
	}
}

// Register: create a USER account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Svc.Register(ctx, service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusCreated, registerResp{UserID: u.ID, Email: u.Email, Role: u.Role})
}

// Login: verify credentials and return a fresh pair. The refresh token is
// additionally set as an HttpOnly cookie for browser clients.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return authError(c, err)
	}
	setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, loginResp{
		UserID:    pair.User.ID,
		Username:  pair.User.Username,
		Email:     pair.User.Email,
		tokenResp: toTokenResp(pair),
	})
}

// Refresh: exchange a refresh token for a new pair, rotating it. The token
// comes from the JSON body or, for cookie-based clients, the rt cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		if ck, err := c.Cookie(refreshCookieName); err == nil {
			raw = ck.Value
		}
	}
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	pair, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return authError(c, err)
	}
	setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, toTokenResp(pair))
}

// Logout: revoke the refresh token; if an access token is supplied it is
// blacklisted for its remaining lifetime so it dies now, not at expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		if ck, err := c.Cookie(refreshCookieName); err == nil {
			raw = ck.Value
		}
	}
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Svc.Logout(ctx, raw, req.AccessToken); err != nil {
		return authError(c, err)
	}
	clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// reqContext bounds a handler's store calls; login and refresh are
// cancellable end-to-end through it.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// setRefreshCookie scopes the refresh token cookie to the auth path so it
// only travels to refresh/logout.
func setRefreshCookie(c echo.Context, pair service.TokenPair) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     authPath,
		MaxAge:   int(pair.RefreshExpiresIn / 1000),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     authPath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// authError maps the service error taxonomy onto HTTP responses with the
// stable numeric codes clients branch on.
func authError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrUsernameExists),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrPasswordMismatch):
		status = http.StatusBadRequest
	}
	if code := service.Code(err); code != 0 {
		return c.JSON(status, echo.Map{"code": code, "error": err.Error()})
	}
	return c.JSON(status, echo.Map{"error": "internal error"})
}
