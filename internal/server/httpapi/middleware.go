package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/okolesov/postline/internal/common"
	"github.com/okolesov/postline/internal/server/auth"
)

type ctxKey string

const (
	callerIDKey    ctxKey = "callerID"
	callerEmailKey ctxKey = "callerEmail"
)

// requireAuth verifies the bearer token and attaches the resolved caller
// identity to the request context. Requests without a valid token never
// reach the handler. The token payload is the only identity source; owner
// ids arriving in request bodies are ignored.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, "missing token")
			return
		}

		claims, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			msg := "invalid token"
			if err == common.ErrTokenExpired {
				msg = "token expired"
			}
			abortWithError(c, http.StatusUnauthorized, msg)
			return
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, callerIDKey, claims.UserID)
		ctx = context.WithValue(ctx, callerEmailKey, claims.Email)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CORS mirrors the permissive browser policy of the public API.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", common.AuthHeaderName},
	})
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader(common.AuthHeaderName)
	if len(header) > len(common.BearerPrefix) && strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return strings.TrimSpace(header[len(common.BearerPrefix):])
	}
	return ""
}

// callerID returns the verified caller identity stored by requireAuth.
func callerID(c *gin.Context) string {
	id, _ := c.Request.Context().Value(callerIDKey).(string)
	return id
}
