package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"scholarline/internal/domain"
	"scholarline/internal/services"
	"scholarline/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// identityClaims is the token shape issued by the account service: the
// subject carries the user id, role the product role.
type identityClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseIdentity validates a signed access token and extracts the caller's
// identity from it.
func ParseIdentity(token, secret string) (domain.Identity, error) {
	var claims identityClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	if !parsed.Valid {
		return domain.Identity{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("invalid subject: %w", err)
	}
	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleAdmin, domain.RoleCoordinator, domain.RoleApplicant:
	default:
		return domain.Identity{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	return domain.Identity{UserID: userID, Role: role}, nil
}

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := ParseIdentity(extractBearer(c), secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := services.WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireStaff rejects applicant callers; it must run after AuthMiddleware.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := services.IdentityFromContext(c.Request.Context())
		if !ok || !identity.Role.IsStaff() {
			c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("permission denied", "FORBIDDEN"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
