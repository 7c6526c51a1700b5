package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgmiddleware "github.com/atlasplast/brandadmin/pkg/middleware"
)

const issuer = "brand-admin"

// adminClaims are the JWT claims carried by admin API tokens.
type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWT signs and verifies HS256 admin tokens.
type JWT struct {
	secret []byte
	now    func() time.Time
}

// NewJWT creates a JWT bound to secret.
func NewJWT(secret string) *JWT {
	return &JWT{secret: []byte(secret), now: time.Now}
}

// Issue returns a token for subject with role, valid for ttl.
func (j *JWT) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := adminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate implements pkgmiddleware.TokenValidator.
func (j *JWT) Validate(token string) (*pkgmiddleware.Claims, error) {
	var claims adminClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return &pkgmiddleware.Claims{Subject: claims.Subject, Role: claims.Role}, nil
}

// TokenSource returns a function that hands out a cached token for subject
// and role, issuing a fresh one when less than a tenth of ttl remains.
func (j *JWT) TokenSource(subject, role string, ttl time.Duration) func(context.Context) (string, error) {
	var (
		mu      sync.Mutex
		token   string
		expires time.Time
	)
	return func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()

		if token != "" && j.now().Before(expires.Add(-ttl/10)) {
			return token, nil
		}
		t, err := j.Issue(subject, role, ttl)
		if err != nil {
			return "", err
		}
		token, expires = t, j.now().Add(ttl)
		return token, nil
	}
}
