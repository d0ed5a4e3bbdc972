package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDKey is the gin context key the auth middleware stores the
// resolved user id under.
const userIDKey = "calchat.user_id"

// Authenticator resolves a bearer token to a user id. Token issuance
// and session management live outside this service.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// StaticAuthenticator is a fixed token-to-user mapping, suitable for
// development and tests.
type StaticAuthenticator struct {
	tokens map[string]string
}

// NewStaticAuthenticator copies the given token-to-user-id mapping.
func NewStaticAuthenticator(tokens map[string]string) *StaticAuthenticator {
	copied := make(map[string]string, len(tokens))
	for k, v := range tokens {
		copied[k] = v
	}
	return &StaticAuthenticator{tokens: copied}
}

// Authenticate looks the token up in the static mapping.
func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	userID, ok := a.tokens[token]
	if !ok {
		return "", fmt.Errorf("unknown token")
	}
	return userID, nil
}

// requireAuth extracts the bearer token, resolves it to a user id, and
// aborts with 401 on failure.
func requireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUser returns the user id the auth middleware resolved.
func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
