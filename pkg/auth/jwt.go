package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession marks every failure that means "there is no usable session":
// missing token, bad signature, malformed claims, revoked session.
var ErrNoSession = errors.New("no session")

// Claims represents the session token payload.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	// LoginTime is the unix second the user authenticated. It survives token
	// re-issue while iat does not.
	LoginTime int64 `json:"loginTime,omitempty"`
	jwt.RegisteredClaims
}

// IssuedInstant is the later of the login time and the iat claim.
func (c *Claims) IssuedInstant() time.Time {
	var issued time.Time
	if c.IssuedAt != nil {
		issued = c.IssuedAt.Time
	}
	if c.LoginTime > 0 {
		login := time.Unix(c.LoginTime, 0)
		if login.After(issued) {
			issued = login
		}
	}
	return issued
}

// Issuer signs and parses session tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a session token for a login that happened at loginAt. The
// sub, iat and loginTime claims all derive from loginAt.
func (i *Issuer) Issue(userID int64, username, sessionID string, loginAt time.Time) (string, error) {
	loginAt = loginAt.Truncate(time.Second)
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		SessionID: sessionID,
		LoginTime: loginAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(loginAt),
			ExpiresAt: jwt.NewNumericDate(loginAt.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse validates a session token and returns its claims. Every failure wraps
// ErrNoSession.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrNoSession)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrNoSession)
	}
	return claims, nil
}
