package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"ipfsmarket/internal/server/models"
)

const (
	tokenCookieName = "token"
	bearerPrefix    = "Bearer "

	userContextKey = "user"
)

// extractToken pulls the bearer token from the request: the token cookie
// first, then the Authorization header. Returns "" when neither is present.
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(tokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}
	return ""
}

// checkToken is the session guard: it validates the presented token,
// resolves the owning user, and attaches it to the request context for the
// duration of the call. Rejections abort the request.
func (s *Server) checkToken(c *gin.Context) {
	user, err := s.users.Authenticate(c.Request.Context(), extractToken(c))
	if err != nil {
		c.AbortWithStatusJSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.Set(userContextKey, user)
	c.Next()
}

// currentUser returns the user attached by checkToken.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
