package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/service"
	"github.com/locallens/locallens-backend/internal/errors"
	"github.com/locallens/locallens-backend/pkg/identity"
)

// Context keys for user information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
	UserKey      = "user"
	IdentityKey  = "identity"
)

type AuthMiddleware struct {
	authService service.AuthService
}

func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the token query
// parameter for WebSocket handshakes where browsers cannot set headers.
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		if token == "" {
			return "", service.ErrTokenMissing
		}
		return token, nil
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", service.ErrTokenMalformed
	}
	return parts[1], nil
}

func setUser(c *gin.Context, user *model.User, id *identity.Identity) {
	c.Set(UserIDKey, user.ID)
	c.Set(UserEmailKey, user.Email)
	c.Set(UserRoleKey, user.Role)
	c.Set(UserKey, user)
	c.Set(IdentityKey, id)
}

// Authenticate verifies the bearer token and loads the registered, active user (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, err := bearerToken(c)
		if err != nil {
			log.Warn("Missing or malformed credentials", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.AbortWith(c, err)
			return
		}

		user, id, err := m.authService.Resolve(c.Request.Context(), token)
		if err != nil {
			log.Warn("Authentication failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			errors.AbortWith(c, err)
			return
		}

		setUser(c, user, id)
		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": user.ID,
			"role":    user.Role,
		})
		c.Next()
	}
}

// VerifyIdentity only checks the token. It is used by registration, where no account exists yet.
func (m *AuthMiddleware) VerifyIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			errors.AbortWith(c, err)
			return
		}
		id, err := m.authService.VerifyIdentity(c.Request.Context(), token)
		if err != nil {
			GetLoggerFromContext(c).Warn("Identity verification failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			errors.AbortWith(c, err)
			return
		}
		c.Set(IdentityKey, id)
		c.Next()
	}
}

// OptionalAuthenticate resolves the user when a valid token is present
// and otherwise continues as a guest.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, err := bearerToken(c)
		if err != nil {
			c.Next()
			return
		}

		user, id, err := m.authService.Resolve(c.Request.Context(), token)
		if err != nil {
			log.Debug("Optional authentication failed - continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		setUser(c, user, id)
		c.Next()
	}
}

// RequireRole checks if user has one of the required roles. Must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetUserRole(c)
		if !exists {
			errors.AbortWith(c, service.ErrTokenMissing)
			return
		}

		if err := service.Authorize(role, roles...); err != nil {
			userID, _ := GetUserID(c)
			log.Warn("Insufficient permissions", map[string]interface{}{
				"user_id":        userID,
				"user_role":      role,
				"required_roles": roles,
				"path":           c.Request.URL.Path,
			})
			errors.AbortWith(c, err)
			return
		}
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	r, ok := role.(model.UserRole)
	return r, ok
}

// GetUser returns the resolved user record
func GetUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// GetIdentity returns the verified token identity
func GetIdentity(c *gin.Context) (*identity.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	id, ok := v.(*identity.Identity)
	return id, ok
}
