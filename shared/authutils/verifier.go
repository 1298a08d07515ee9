package authutils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alterstory-server/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// clockSkew - допустимое расхождение часов с провайдером идентификации.
const clockSkew = 10 * time.Second

// JWTVerifier проверяет HS256 токены, выпущенные провайдером идентификации.
// Сервис токены только проверяет, но никогда не выпускает.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
	logger *zap.Logger
}

// VerifierOption настраивает JWTVerifier.
type VerifierOption func(*verifierOptions)

type verifierOptions struct {
	issuer string
}

// WithIssuer требует совпадения claim iss.
func WithIssuer(issuer string) VerifierOption {
	return func(o *verifierOptions) { o.issuer = issuer }
}

// NewJWTVerifier создает проверку токенов. Если логгер nil, используется Noop.
func NewJWTVerifier(jwtSecret string, logger *zap.Logger, opts ...VerifierOption) (*JWTVerifier, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o verifierOptions
	for _, opt := range opts {
		opt(&o)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
	}
	if o.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(o.issuer))
	}

	return &JWTVerifier{
		secret: []byte(jwtSecret),
		parser: jwt.NewParser(parserOpts...),
		logger: logger.Named("JWTVerifier"),
	}, nil
}

// VerifyToken проверяет подпись и срок токена и возвращает claims.
// Пользователь берется из user_id, при его отсутствии из sub.
func (v *JWTVerifier) VerifyToken(_ context.Context, tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		v.logger.Debug("Token rejected", zap.String("tokenSnippet", tokenSnippet(tokenString)), zap.Error(err))
		return nil, mapJWTError(err)
	}

	if claims.UserID == uuid.Nil && claims.Subject != "" {
		if subjectID, parseErr := uuid.Parse(claims.Subject); parseErr == nil {
			claims.UserID = subjectID
		}
	}
	if claims.UserID == uuid.Nil {
		v.logger.Warn("Token has no user id", zap.String("tokenSnippet", tokenSnippet(tokenString)))
		return nil, fmt.Errorf("%w: user id missing", models.ErrTokenInvalid)
	}
	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return models.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return models.ErrTokenInvalid
	default:
		return fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}
}

// tokenSnippet - начало токена для логов.
func tokenSnippet(tokenString string) string {
	const limit = 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
