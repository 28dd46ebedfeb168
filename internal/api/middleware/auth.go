package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Context keys for storing user information
type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	JWTClaimsKey contextKey = "jwt_claims"
)

// Claims are the token claims issued by the auth service.
// Older tokens carry the user in "id" instead of "sub".
type Claims struct {
	jwt.RegisteredClaims
	LegacyID string `json:"id,omitempty"`
	Email    string `json:"email,omitempty"`
}

// UserID returns the authenticated user's identifier
func (c *Claims) UserID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.LegacyID
}

// JWTAuthMiddleware verifies HS256 bearer tokens on protected routes
type JWTAuthMiddleware struct {
	log    *zap.SugaredLogger
	issuer string
	secret []byte
}

// NewJWTAuthMiddleware creates the auth middleware.
// issuer is optional; when set, tokens must carry a matching "iss".
func NewJWTAuthMiddleware(secret, issuer string, log *zap.SugaredLogger) (*JWTAuthMiddleware, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	return &JWTAuthMiddleware{
		secret: []byte(secret),
		issuer: issuer,
		log:    log,
	}, nil
}

// RequireAuth middleware ensures the user is authenticated with a valid JWT
// If not authenticated, returns 401
// If authenticated, injects user ID and JWT claims into context
func (m *JWTAuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeAuthError(w, "Missing Authorization header")
			return
		}

		// Must be Bearer token
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeAuthError(w, "Invalid Authorization header format. Expected: Bearer <token>")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := m.verify(token)
		if err != nil {
			m.log.Infow("auth failure",
				"type", "verification_failed",
				"ip", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			writeAuthError(w, "Token is invalid or expired")
			return
		}

		userID := claims.UserID()
		if userID == "" {
			writeAuthError(w, "Missing user in token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, JWTClaimsKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *JWTAuthMiddleware) verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30 * time.Second),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify token")
	}
	return claims, nil
}

// GetUserID extracts the user's ID from the request context
// Returns empty string if not authenticated
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(UserIDKey).(string)
	return id
}

// GetJWTClaims extracts the JWT claims from the request context
// Returns nil if not authenticated
func GetJWTClaims(r *http.Request) *Claims {
	claims, _ := r.Context().Value(JWTClaimsKey).(*Claims)
	return claims
}

// SetTestUserID sets the user ID in the context for testing purposes
// This function should ONLY be used in tests to mock authenticated users
func SetTestUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "AuthenticationRequired",
		"message": message,
	})
}
