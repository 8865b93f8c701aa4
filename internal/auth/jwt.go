package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Typed verification failures. Both map to HTTP 401; the distinction only
// matters for the message the client sees.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims represents JWT claims
type Claims struct {
	UserID string                 `json:"user_id"`
	Role   string                 `json:"role,omitempty"`
	Extra  map[string]interface{} `json:"extra,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 bearer tokens. The signing secret
// and default TTL are fixed at construction; there is no runtime rotation.
// Changing the secret invalidates every outstanding token.
type Authenticator struct {
	secret     []byte
	defaultTTL time.Duration
}

// NewAuthenticator creates an Authenticator with the given signing secret
// and default token lifetime
func NewAuthenticator(secret string, defaultTTL time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret must not be empty")
	}
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &Authenticator{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
	}, nil
}

// GenerateToken generates a signed token for a user. A zero ttl means
// "unset" and falls back to the authenticator's default lifetime; a
// negative ttl is honored as given and yields an already-expired token.
func (a *Authenticator) GenerateToken(userID, role string, ttl time.Duration, extra map[string]interface{}) (string, error) {
	if ttl == 0 {
		ttl = a.defaultTTL
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		Extra:  extra,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns the claims. Returns
// ErrTokenExpired when the expiry has passed and ErrTokenInvalid for
// tampered, malformed or wrong-key tokens.
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
