package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/bk-med/kanban/internal/contexts"
	"github.com/bk-med/kanban/internal/objects"
	"github.com/bk-med/kanban/internal/server/biz"
)

type AuthHandlersParams struct {
	fx.In

	AuthService *biz.AuthService
}

func NewAuthHandlers(params AuthHandlersParams) *AuthHandlers {
	return &AuthHandlers{
		AuthService: params.AuthService,
	}
}

type AuthHandlers struct {
	AuthService *biz.AuthService
}

type RegisterRequest struct {
	Username  string `json:"username"   binding:"required"`
	Email     string `json:"email"      binding:"required"`
	Password  string `json:"password"   binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates a regular active account.
func (h *AuthHandlers) Register(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req RegisterRequest
	)

	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	user, err := h.AuthService.Register(ctx, biz.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, biz.ConvertUserToUserInfo(user))
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User  *objects.UserInfo  `json:"user"`
	Token *objects.TokenPair `json:"token"`
}

// Login authenticates with username and password and issues a token pair.
func (h *AuthHandlers) Login(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req LoginRequest
	)

	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	user, pair, err := h.AuthService.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, biz.ErrInvalidPassword) {
			JSONError(c, http.StatusUnauthorized, errors.New("Invalid username or password"))
			return
		}

		BizError(c, err)

		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		User:  biz.ConvertUserToUserInfo(user),
		Token: pair,
	})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh exchanges a refresh token for a fresh pair.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var (
		ctx = c.Request.Context()
		req RefreshRequest
	)

	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, errors.New("Invalid request format"))
		return
	}

	pair, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, biz.ErrInvalidJWT) {
			JSONError(c, http.StatusUnauthorized, errors.New("Invalid refresh token"))
			return
		}

		BizError(c, err)

		return
	}

	c.JSON(http.StatusOK, pair)
}

// Me returns the authenticated identity.
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := contexts.GetUser(c.Request.Context())
	if !ok {
		JSONError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	c.JSON(http.StatusOK, biz.ConvertUserToUserInfo(user))
}
