package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"yardcraft/internal/domain"
)

// SignInPath is where clients send users without a valid identity.
const SignInPath = "/sign-in"

// TokenClaims are the claims carried by access tokens.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	Plan  string `json:"plan,omitempty"`
	jwt.RegisteredClaims
}

type accountKey struct{}

// AccountResolver turns verified claims into the account used by handlers.
type AccountResolver func(ctx context.Context, claims *TokenClaims) (domain.Account, error)

// SignJWT issues an HS256 token.
func SignJWT(secret string, claims TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// NewTokenClaims fills the registered claims for subject with the given
// lifetime.
func NewTokenClaims(subject, email string, plan domain.Plan, ttl time.Duration) TokenClaims {
	now := time.Now()
	return TokenClaims{
		Email: email,
		Plan:  string(plan),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// VerifyJWT parses token and checks its signature and expiry.
func VerifyJWT(secret, token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// AuthJWT requires a bearer token. Requests without a usable identity get
// 401 with a Location header pointing at the sign-in page.
func AuthJWT(secret string, resolve AccountResolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				signInRequired(w, "sign in to continue")
				return
			}
			claims, err := VerifyJWT(secret, strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Debug().Err(err).Str("request_id", RequestIDFromContext(r.Context())).Msg("rejected token")
				signInRequired(w, "your session has expired, sign in again")
				return
			}
			acc := domain.Account{ID: claims.Subject, Email: claims.Email, Plan: domain.PlanFree}
			if plan, err := domain.ParsePlan(claims.Plan); err == nil {
				acc.Plan = plan
			}
			if resolve != nil {
				resolved, err := resolve(r.Context(), claims)
				if err != nil {
					logger.Error().Err(err).Str("account_id", claims.Subject).Msg("resolve account")
					writeError(w, http.StatusInternalServerError, "internal_error", "could not load your account")
					return
				}
				acc = resolved
			}
			next.ServeHTTP(w, r.WithContext(ContextWithAccount(r.Context(), acc)))
		})
	}
}

// AccountFromContext returns the authenticated account.
func AccountFromContext(ctx context.Context) (domain.Account, bool) {
	acc, ok := ctx.Value(accountKey{}).(domain.Account)
	return acc, ok && acc.ID != ""
}

func ContextWithAccount(ctx context.Context, acc domain.Account) context.Context {
	if strings.TrimSpace(acc.ID) == "" {
		return ctx
	}
	return context.WithValue(ctx, accountKey{}, acc)
}

func signInRequired(w http.ResponseWriter, msg string) {
	w.Header().Set("Location", SignInPath)
	writeError(w, http.StatusUnauthorized, "signin_required", msg)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}
