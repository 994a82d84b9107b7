package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Davidgelis/whatsapp-ai-bot/internal/accounts"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/auth"
)

// Authenticator checks admin credentials against the account store.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (accounts.Admin, error)
}

// AuthHandler serves the admin login endpoint.
type AuthHandler struct {
	accounts  Authenticator
	jwtSecret string
	tokenTTL  time.Duration
	logger    *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Admin     accounts.Admin `json:"admin"`
}

func NewAuthHandler(log *slog.Logger, authenticator Authenticator, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthHandler{
		accounts:  authenticator,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    log.With(slog.String("handler", "auth")),
	}
}

func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/admin/login", h.Login)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	admin, err := h.accounts.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			h.logger.Warn("login rejected", slog.String("email", req.Email))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	token, expiresAt, err := auth.GenerateToken(strconv.FormatInt(admin.ID, 10), admin.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.logger.Info("admin logged in", slog.Int64("admin_id", admin.ID))
	return c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, Admin: admin})
}
