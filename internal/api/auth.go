package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shaiso/QuietHours/internal/telemetry"
)

// Claims — claims access-токена сервиса аутентификации.
// Идентификатор пользователя передаётся в "sub".
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type ctxKey string

const (
	ctxUserID ctxKey = "user_id"
	ctxEmail  ctxKey = "email"
)

var errNoBearer = errors.New("bearer token required")

// bearerToken извлекает токен из заголовка Authorization.
func bearerToken(r *http.Request) (string, error) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		return "", errNoBearer
	}
	return token, nil
}

// ParseToken проверяет подпись HS256 и возвращает claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// IssueToken подписывает токен для пользователя. Используется командой
// `quiethours token` для локальной разработки и в тестах.
func IssueToken(secret []byte, userID uuid.UUID, email string) (string, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID.String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// JWTAuth проверяет bearer-токен и кладёт user id в контекст.
func JWTAuth(secret []byte) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) == 0 {
				Unauthorized(w, "authentication is not configured")
				return
			}

			tokenString, err := bearerToken(r)
			if err != nil {
				Unauthorized(w, err.Error())
				return
			}

			claims, err := ParseToken(secret, tokenString)
			if err != nil {
				Unauthorized(w, "invalid token")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				Unauthorized(w, "invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxEmail, claims.Email)
			if logger, ok := ctx.Value(telemetry.CtxLogger).(*slog.Logger); ok {
				ctx = telemetry.WithLogger(ctx, telemetry.WithUserID(logger, userID.String()))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID возвращает id пользователя, установленный JWTAuth.
func UserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxUserID).(uuid.UUID)
	return id
}

func tokenEmail(ctx context.Context) string {
	email, _ := ctx.Value(ctxEmail).(string)
	return email
}

// CronAuth пропускает запрос, только если заголовок Authorization
// равен "Bearer <secret>". Пустой secret закрывает эндпоинт.
func CronAuth(secret string) Middleware {
	expected := []byte("Bearer " + secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if secret == "" || subtle.ConstantTimeCompare(got, expected) != 1 {
				PlainError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
