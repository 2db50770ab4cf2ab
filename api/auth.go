package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/estudiopraxis/console/pkg/errors"
)

const (
	ctxUserKey = "auth_user"
	ctxRoleKey = "auth_role"
)

// claims is the token payload issued to console users. Role is either
// "analyst" or "admin".
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// authMiddleware validates the bearer token and stashes the subject and
// role on the request context.
func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortWithProblem(c, errors.NewUnauthorizedProblem("missing bearer token", c.Request.URL.Path))
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		var cl claims
		token, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortWithProblem(c, errors.NewUnauthorizedProblem("invalid or expired token", c.Request.URL.Path))
			return
		}

		c.Set(ctxUserKey, cl.Subject)
		c.Set(ctxRoleKey, cl.Role)
		c.Next()
	}
}

// requireRole gates a route to one role. Runs after authMiddleware.
func requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRoleKey) != role {
			abortWithProblem(c, errors.NewForbiddenProblem("insufficient role", c.Request.URL.Path))
			return
		}
		c.Next()
	}
}

func abortWithProblem(c *gin.Context, p *errors.ProblemDetails) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(p.Status, p)
}
