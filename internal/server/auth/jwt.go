// Package auth issues and validates the signed tokens used by the session
// service: short-lived access tokens and long-lived refresh tokens.
package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Config is the immutable signing configuration of a TokenCodec.
type Config struct {
	Secret     []byte
	Algorithm  string // HS256, HS384 or HS512
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims are the registered claims (sub, jti, iat, exp, iss) plus the token kind.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type"`
}

// TokenCodec signs and verifies tokens. Each token kind is signed with its own
// key derived from Config.Secret, so a token is only ever valid for the kind
// it was issued as.
type TokenCodec struct {
	method     *jwt.SigningMethodHMAC
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	keys       map[string][]byte
	now        func() time.Time
}

// NewTokenCodec validates cfg and derives the per-kind keys. A nil now uses
// time.Now.
func NewTokenCodec(cfg Config, now func() time.Time) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	var method *jwt.SigningMethodHMAC
	switch cfg.Algorithm {
	case "", jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	if now == nil {
		now = time.Now
	}

	c := &TokenCodec{
		method:     method,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		keys:       make(map[string][]byte, 2),
		now:        now,
	}
	for _, kind := range []string{common.TokenKindAccess, common.TokenKindRefresh} {
		key, err := deriveKey(cfg.Secret, kind, method.Hash.Size())
		if err != nil {
			return nil, err
		}
		c.keys[kind] = key
	}
	return c, nil
}

func deriveKey(secret []byte, kind string, size int) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, []byte("taskboard/"+kind+"-token/v1"))
	key := make([]byte, size)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", kind, err)
	}
	return key, nil
}

// IssueAccess returns an access token for userID.
func (c *TokenCodec) IssueAccess(userID string) (string, error) {
	token, _, err := c.issue(userID, "", common.TokenKindAccess, c.accessTTL)
	return token, err
}

// IssueRefresh returns a refresh token for userID carrying jti, and the expiry
// embedded in it.
func (c *TokenCodec) IssueRefresh(userID, jti string) (string, time.Time, error) {
	return c.issue(userID, jti, common.TokenKindRefresh, c.refreshTTL)
}

func (c *TokenCodec) issue(userID, jti, kind string, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	exp := jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(c.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
		Type: kind,
	})

	signed, err := token.SignedString(c.keys[kind])
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp.Time, nil
}

// Decode verifies token as expectedKind and returns its claims. Every failure
// (bad signature, malformed, expired or missing exp, wrong algorithm, wrong
// issuer, wrong kind, empty subject) returns common.ErrInvalidToken.
func (c *TokenCodec) Decode(token, expectedKind string) (*Claims, error) {
	key, ok := c.keys[expectedKind]
	if !ok {
		return nil, common.ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.Type != expectedKind || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
