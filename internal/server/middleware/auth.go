package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bk-med/kanban/internal/authz"
	"github.com/bk-med/kanban/internal/contexts"
	"github.com/bk-med/kanban/internal/server/biz"
)

// ExtractBearerToken pulls the JWT out of the Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("Authorization header is required")
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("Authorization header must start with 'Bearer '")
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", errors.New("token is required")
	}

	return token, nil
}

// WithJWTAuth authenticates the request with a bearer access token and stores
// both the loaded user and the authorization principal on the context.
func WithJWTAuth(auth *biz.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c.Request)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, err)
			return
		}

		user, err := auth.AuthenticateAccessToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, biz.ErrInvalidJWT) {
				AbortWithError(c, http.StatusUnauthorized, errors.New("Invalid token"))
			} else {
				AbortWithError(c, http.StatusInternalServerError, errors.New("Failed to validate token"))
			}

			return
		}

		ctx := authz.NewUserContext(c.Request.Context(), user.ID, user.IsAdmin)
		ctx = contexts.WithUser(ctx, user)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAdmin guards the admin group. It must run behind WithJWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := contexts.GetUser(c.Request.Context())
		if !ok {
			AbortWithError(c, http.StatusUnauthorized, errors.New("authentication required"))
			return
		}

		if !user.IsAdmin {
			AbortWithError(c, http.StatusForbidden, errors.New("administrator privileges required"))
			return
		}

		c.Next()
	}
}
