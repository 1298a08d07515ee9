package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"alterstory-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier определяет функцию, которая проверяет строку токена и возвращает claims.
// Ошибки могут быть models.ErrTokenInvalid, models.ErrTokenExpired, models.ErrTokenMalformed и т.д.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// Ключи gin.Context, под которыми лежит пользователь после аутентификации.
const (
	ContextUserIDKey = "user_id"
	ContextRolesKey  = "user_roles"
)

// errMissingToken - заголовок Authorization отсутствует.
var errMissingToken = errors.New("authorization header missing")

// extractBearer достает токен из заголовка "Authorization: Bearer <token>".
func extractBearer(header string) (string, error) {
	if header == "" {
		return "", errMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", models.ErrTokenMalformed
	}
	return parts[1], nil
}

// RequireAuth создает gin middleware для проверки JWT и ролей.
// Оно извлекает токен, верифицирует его, проверяет наличие необходимых ролей
// и кладет UserID/Roles в контекст запроса и в gin.Context.
func RequireAuth(verifier TokenVerifier, logger *zap.Logger, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.With(zap.String("path", c.Request.URL.Path))

		tokenString, err := extractBearer(c.GetHeader("Authorization"))
		if err != nil {
			log.Debug("Missing or malformed Authorization header", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeUnauthorized,
				Message: "Authentication required",
			})
			return
		}

		claims, err := verifier(c.Request.Context(), tokenString)
		if err != nil {
			abortVerification(c, log, err)
			return
		}

		if len(requiredRoles) > 0 && !hasAnyRole(claims.Roles, requiredRoles) {
			log.Warn("User does not have required role",
				zap.String("userID", claims.UserID.String()),
				zap.Strings("userRoles", claims.Roles),
				zap.Strings("requiredRoles", requiredRoles),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Code:    models.ErrCodeForbidden,
				Message: "Insufficient permissions",
			})
			return
		}

		setUser(c, claims)
		log.Debug("User authorized", zap.String("userID", claims.UserID.String()), zap.Strings("roles", claims.Roles))
		c.Next()
	}
}

// OptionalAuth пропускает анонимные запросы. Если токен передан, он обязан быть валидным.
func OptionalAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractBearer(c.GetHeader("Authorization"))
		if errors.Is(err, errMissingToken) {
			c.Next()
			return
		}
		log := logger.With(zap.String("path", c.Request.URL.Path))
		if err != nil {
			abortVerification(c, log, err)
			return
		}

		claims, err := verifier(c.Request.Context(), tokenString)
		if err != nil {
			abortVerification(c, log, err)
			return
		}
		setUser(c, claims)
		c.Next()
	}
}

func abortVerification(c *gin.Context, log *zap.Logger, err error) {
	status := http.StatusUnauthorized
	resp := models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Invalid token"}
	switch {
	case errors.Is(err, models.ErrTokenExpired):
		resp.Message = "Token expired"
	case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
	default:
		log.Error("Unexpected token verification error", zap.Error(err))
		status = http.StatusInternalServerError
		resp = models.ErrorResponse{Code: models.ErrCodeStorage, Message: "Internal server error during token verification"}
	}
	log.Warn("Token verification failed", zap.Error(err))
	c.AbortWithStatusJSON(status, resp)
}

func hasAnyRole(userRoles, requiredRoles []string) bool {
	for _, requiredRole := range requiredRoles {
		if models.HasRole(userRoles, requiredRole) {
			return true
		}
	}
	return false
}

func setUser(c *gin.Context, claims *models.Claims) {
	c.Set(ContextUserIDKey, claims.UserID)
	c.Set(ContextRolesKey, claims.Roles)
	c.Request = c.Request.WithContext(models.WithUser(c.Request.Context(), claims.UserID, claims.Roles))
}
