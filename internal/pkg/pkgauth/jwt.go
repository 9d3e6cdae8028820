package pkgauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tclzcja/apiserver/internal/pkg/pkgerror"
	"github.com/tclzcja/apiserver/internal/pkg/pkgrouter"
)

const (
	// MinSecretLength is the shortest accepted HMAC secret.
	MinSecretLength = 32

	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
	clockSkew           = 2 * time.Minute
)

// Claims are the token claims handed to handlers as RequestContext.User.
type Claims struct {
	jwt.RegisteredClaims
}

// Subject returns the authenticated username.
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Subjecter is implemented by handler results that identify a user who just
// logged in.
type Subjecter interface {
	Subject() string
}

// JWT issues and validates bearer tokens.
type JWT struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewJWT creates a token service. The secret must be at least
// MinSecretLength characters and the lifetime positive.
func NewJWT(secret string, lifetime time.Duration) (*JWT, error) {
	if len(secret) < MinSecretLength {
		return nil, pkgerror.NewConfiguration(fmt.Sprintf("auth secret must be at least %d characters", MinSecretLength))
	}
	if lifetime <= 0 {
		return nil, pkgerror.NewConfiguration("auth token lifetime must be positive")
	}

	return &JWT{key: []byte(secret), lifetime: lifetime, now: time.Now}, nil
}

// Issue creates a signed token for subject.
func (j *JWT) Issue(subject string) (string, error) {
	now := j.now()
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.lifetime)),
		ID:        uuid.NewString(),
	}}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates token and returns its claims.
func (j *JWT) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return j.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject() == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Verify reads the bearer token from the request. It matches
// pkgrouter.VerifyHook and yields *Claims as the request user.
func (j *JWT) Verify(ctx context.Context, r *http.Request) (any, error) {
	header := r.Header.Get(headerAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, pkgerror.NewUnauthorized("Missing bearer token")
	}

	claims, err := j.Parse(strings.TrimSpace(header[len(bearerPrefix):]))
	if err != nil {
		slog.DebugContext(ctx, "token rejected", "error", err)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgerror.NewUnauthorized("Token expired")
		}
		return nil, pkgerror.NewUnauthorized("Invalid token")
	}

	return claims, nil
}

// Sign refreshes the caller's token into the Authorization response header.
// It matches pkgrouter.SignHook.
func (j *JWT) Sign(_ context.Context, resp *pkgrouter.Response, user any) error {
	claims, ok := user.(*Claims)
	if !ok || claims == nil {
		return nil
	}
	return j.setToken(resp, claims.Subject())
}

// Login issues a token for a handler result that implements Subjecter. It
// matches pkgrouter.LoginHook.
func (j *JWT) Login(_ context.Context, resp *pkgrouter.Response, result any) error {
	s, ok := result.(Subjecter)
	if !ok || s.Subject() == "" {
		return nil
	}
	return j.setToken(resp, s.Subject())
}

func (j *JWT) setToken(resp *pkgrouter.Response, subject string) error {
	token, err := j.Issue(subject)
	if err != nil {
		return pkgerror.NewServer(err)
	}
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	resp.Header.Set(headerAuthorization, bearerPrefix+token)
	return nil
}
