package utils // package utils provides helpers for signing access tokens

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken is a signed HS256 JWT along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken signs a token for userID with the given role, valid for
// ttlMin minutes.  It carries sub, role, exp and iat, which is the shape
// middleware.JWTAuth accepts.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	return sign(secret, userID, role, time.Duration(ttlMin)*time.Minute)
}

func sign(secret string, sub any, role string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ServiceTokens mints the token the service uses for backend calls made
// outside a user request (background pulls and update pushes).  A token is
// reused until it is within a fifth of its lifetime of expiring.
type ServiceTokens struct {
	secret  string
	subject string
	role    string
	ttl     time.Duration

	mu  sync.Mutex
	cur AccessToken
}

// NewServiceTokens returns a source of tokens for subject.  ttl defaults
// to fifteen minutes.
func NewServiceTokens(secret, subject, role string, ttl time.Duration) *ServiceTokens {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ServiceTokens{secret: secret, subject: subject, role: role, ttl: ttl}
}

// Token returns a valid signed token, minting a new one when needed.
func (s *ServiceTokens) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.Token != "" && time.Until(s.cur.Exp) > s.ttl/5 {
		return s.cur.Token, nil
	}
	t, err := sign(s.secret, s.subject, s.role, s.ttl)
	if err != nil {
		return "", err
	}
	s.cur = t
	return t.Token, nil
}
