package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"storefront/internal/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
)

type actorKey struct{}

// WithActor stores the authenticated actor on ctx.
func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(model.Actor)
	return actor, ok
}

// Claims are the bearer token claims issued by the identity service.
type Claims struct {
	Role     string `json:"role"`
	VendorID string `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthConfig configures Authenticate.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	// APIKey authenticates internal callers as administrators.
	APIKey string
}

// serviceActor is the identity given to callers presenting the API key.
var serviceActor = model.Actor{UserID: "service", Role: model.RoleAdmin}

// Authenticate resolves the caller from an HS256 bearer token or the
// X-API-Key header. Requests with neither continue anonymously; presenting
// invalid credentials is rejected with 401.
func Authenticate(cfg AuthConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	secret := []byte(cfg.JWTSecret)
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := r.Header.Get("X-API-Key"); key != "" {
				if cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) != 1 {
					logger.Warn().
						Str("path", r.URL.Path).
						Str("provided_key", key[:min(8, len(key))]).
						Msg("invalid API key")
					respondError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "invalid API key")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), serviceActor)))
				return
			}

			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			var claims Claims
			if _, err := parser.ParseWithClaims(tokenStr, &claims, keyFunc); err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("token verification failed")
				respondError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "invalid token")
				return
			}

			if cfg.JWTIssuer != "" && !claims.VerifyIssuer(cfg.JWTIssuer, true) {
				logger.Warn().Str("issuer", claims.Issuer).Msg("token issuer mismatch")
				respondError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "invalid token")
				return
			}

			actor, err := actorFromClaims(claims)
			if err != nil {
				logger.Warn().Err(err).Str("subject", claims.Subject).Msg("token carries unusable claims")
				respondError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole rejects anonymous callers with 401 and callers without one
// of roles with 403.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, model.ErrCodeForbidden, "insufficient role")
		})
	}
}

func actorFromClaims(c Claims) (model.Actor, error) {
	if strings.TrimSpace(c.Subject) == "" {
		return model.Actor{}, errMissingSubject
	}

	role := model.Role(strings.ToLower(strings.TrimSpace(c.Role)))
	switch role {
	case "":
		role = model.RoleCustomer
	case model.RoleCustomer, model.RoleVendor, model.RoleAdmin:
	default:
		return model.Actor{}, errUnknownRole
	}

	if role == model.RoleVendor && strings.TrimSpace(c.VendorID) == "" {
		return model.Actor{}, errMissingVendor
	}

	return model.Actor{UserID: c.Subject, Role: role, VendorID: strings.TrimSpace(c.VendorID)}, nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: message, Code: code})
}
