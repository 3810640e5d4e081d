package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amineqh/auto-services-marketplace/internal/apperr"
	"github.com/amineqh/auto-services-marketplace/internal/config"
	"github.com/amineqh/auto-services-marketplace/internal/middleware"
	"github.com/amineqh/auto-services-marketplace/internal/model"
	"github.com/amineqh/auto-services-marketplace/internal/repository"
	"github.com/amineqh/auto-services-marketplace/internal/utils"
)

// AuthHandler bundles dependencies for registration, login, token
// lifecycle and profile endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // CLIENT | SERVICE_USER | ADMIN
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Phone: u.Phone, Address: u.Address}
}

// issueTokens signs a new access token and stores a fresh refresh
// token for the user.
func (h *AuthHandler) issueTokens(ctx context.Context, userID uint64, role string) (tokenPart, tokenPart, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenPart{}, tokenPart{}, apperr.Unexpected(err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenPart{}, tokenPart{}, apperr.Unexpected(err)
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return tokenPart{}, tokenPart{}, apperr.Unexpected(err)
	}
	return tokenPart{Token: access.Token, Expires: access.Exp},
		tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, nil // raw goes back to the client
}

// Register creates a user and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return respondErr(c, apperr.Validation("please provide an email and password"))
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = model.RoleClient
	}
	if !model.ValidRole(role) {
		return respondErr(c, apperr.Validation("invalid role"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, role, req.Name, req.Phone, req.Address, h.Cfg.BcryptCost)
	if err != nil {
		return respondErr(c, err)
	}
	access, refresh, err := h.issueTokens(ctx, uid, role)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, authResp{
		User:    userPart{ID: uid, Name: req.Name, Email: req.Email, Role: role, Phone: req.Phone, Address: req.Address},
		Access:  access,
		Refresh: refresh,
	})
}

// Login verifies credentials and returns a new token pair. A missing
// user and a wrong password answer identically.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return respondErr(c, apperr.Validation("please provide an email and password"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return respondErr(c, apperr.Authentication("invalid credentials"))
		}
		return respondErr(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return respondErr(c, apperr.Authentication("invalid credentials"))
	}

	access, refresh, err := h.issueTokens(ctx, u.ID, u.Role)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, authResp{User: toUserPart(u), Access: access, Refresh: refresh})
}

// Refresh validates a refresh token by hash, revokes it and issues a
// new pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return respondErr(c, apperr.Validation("refresh_token required"))
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return respondErr(c, apperr.Authentication("invalid refresh token"))
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return respondErr(c, apperr.Authentication("invalid refresh token"))
	}
	access, refresh, err := h.issueTokens(ctx, u.ID, u.Role)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, authResp{User: toUserPart(u), Access: access, Refresh: refresh})
}

// Logout revokes the presented refresh token, ending that session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return respondErr(c, apperr.Validation("refresh_token required"))
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
		return respondErr(c, apperr.Authentication("invalid refresh token"))
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return respondErr(c, apperr.Unexpected(err))
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return respondErr(c, apperr.Authentication("not authorized to access this route"))
	}
	return respond(c, http.StatusOK, toUserPart(u))
}

// UpdateProfile overwrites name, phone and address. Empty fields keep
// their current value; role and email never change here.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return respondErr(c, apperr.Authentication("not authorized to access this route"))
	}
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return respondErr(c, apperr.Validation("invalid body"))
	}
	if req.Name == "" {
		req.Name = u.Name
	}
	if req.Phone == "" {
		req.Phone = u.Phone
	}
	if req.Address == "" {
		req.Address = u.Address
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, u.ID, req.Name, req.Phone, req.Address); err != nil {
		return respondErr(c, err)
	}
	u.Name, u.Phone, u.Address = req.Name, req.Phone, req.Address
	return respond(c, http.StatusOK, toUserPart(u))
}

// UpdatePassword verifies the current password before storing a new
// hash and revoking all refresh tokens for the user.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return respondErr(c, apperr.Authentication("not authorized to access this route"))
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil || req.NewPassword == "" {
		return respondErr(c, apperr.Validation("currentPassword and newPassword required"))
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return respondErr(c, apperr.Authentication("invalid credentials"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return respondErr(c, err)
	}
	// Old sessions die with the old password.
	_ = h.Tokens.RevokeAllForUser(ctx, u.ID)
	return respond(c, http.StatusOK, echo.Map{"updated": true})
}

// ListUsers returns every user. Admin-only at the route level.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]userPart, len(users))
	for i, u := range users {
		out[i] = toUserPart(u)
	}
	return respondCount(c, out, len(out))
}
