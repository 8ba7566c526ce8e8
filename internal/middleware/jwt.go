package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"prism/internal/httputil"
)

// ContextKey is a type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "userId"
	// UserNameKey is the context key for user name
	UserNameKey ContextKey = "userName"

	// GuestUserID identifies unauthenticated sessions when guest access
	// is enabled.
	GuestUserID = "guest"
)

// ErrInvalidToken is returned when token parsing or validation fails
var ErrInvalidToken = &tokenError{message: "invalid token"}

type tokenError struct {
	message string
}

func (e *tokenError) Error() string {
	return e.message
}

// Authenticate creates a chi middleware that validates JWT bearer tokens
// and puts the caller's identity on the request context. When allowGuest
// is set, requests without a token proceed as the guest user; a token
// that is present but invalid is still rejected.
func Authenticate(secret string, allowGuest bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				if allowGuest {
					next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), GuestUserID, "")))
					return
				}
				httputil.Unauthorized(w, "missing authorization header")
				return
			}

			claims, err := ValidateJWT(token, secret)
			if err != nil {
				httputil.Unauthorized(w, "invalid token")
				return
			}

			userID, _ := claims["userId"].(string)
			if userID == "" {
				httputil.Unauthorized(w, "invalid token claims")
				return
			}
			name, _ := claims["name"].(string)

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), userID, name)))
		})
	}
}

// TokenFromRequest extracts a bearer token from the Authorization header,
// falling back to the "token" query parameter for websocket upgrades,
// where browsers cannot set headers.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// IssueToken creates a signed HS256 token for the given user.
func IssueToken(userID, name, secret string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": userID,
		"name":   name,
		"iat":    now.Unix(),
		"exp":    now.Add(expire).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateJWT validates a JWT token and returns its claims
func ValidateJWT(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func withIdentity(ctx context.Context, userID, name string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	if name != "" {
		ctx = context.WithValue(ctx, UserNameKey, name)
	}
	return ctx
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserName extracts user name from context
func GetUserName(ctx context.Context) string {
	if name, ok := ctx.Value(UserNameKey).(string); ok {
		return name
	}
	return ""
}
