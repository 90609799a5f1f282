package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"pawpop-backend/internal/models"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"

	AdminRole = "admin"
)

// AuthMiddleware verifies a Supabase-issued HS256 bearer token and stores
// the subject under UserIDKey. When requiredRole is set the token must
// carry it in app_metadata.role or the top-level role claim.
func AuthMiddleware(jwtSecret, requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "missing authorization header", "")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "invalid authorization header format", "")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "empty token", "")
			return
		}

		// Some clients URL-encode the token.
		if decoded, err := url.QueryUnescape(tokenString); err == nil {
			tokenString = decoded
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			if jwtSecret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token", tokenErrorMessage(err))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			abort(c, http.StatusUnauthorized, "invalid token claims", "")
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			abort(c, http.StatusUnauthorized, "missing user id in token", "")
			return
		}

		role := roleFromClaims(claims)
		if requiredRole != "" && role != requiredRole {
			abort(c, http.StatusForbidden, "insufficient role", "this endpoint requires the "+requiredRole+" role")
			return
		}

		c.Set(UserIDKey, sub)
		c.Set(RoleKey, role)
		c.Next()
	}
}

// AdminAuth is AuthMiddleware restricted to the admin role.
func AdminAuth(jwtSecret string) gin.HandlerFunc {
	return AuthMiddleware(jwtSecret, AdminRole)
}

func roleFromClaims(claims jwt.MapClaims) string {
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if role, ok := meta["role"].(string); ok && role != "" {
			return role
		}
	}
	role, _ := claims["role"].(string)
	return role
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token has expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return "token signature is invalid - check JWT secret"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "token is malformed - ensure you're using a valid Supabase JWT token"
	default:
		return err.Error()
	}
}

func abort(c *gin.Context, status int, msg, detail string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg, Message: detail})
}
