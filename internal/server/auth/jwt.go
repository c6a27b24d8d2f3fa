// Package auth signs and verifies the stateless bearer tokens handed out by
// the credential lifecycle engine. Access and refresh tokens are HS256 JWTs
// signed with separate secrets; refresh tokens additionally carry a jti that
// ties them to a persisted record.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload: sub always, jti on refresh tokens only.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject the token was issued to.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenPair is the result of IssuePair. RefreshJTI must be persisted by the
// caller; the codec itself stores nothing.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	RefreshJTI   string
}

// GenerateToken signs claims with secretKey, stamping iat and exp from now.
func GenerateToken(claims Claims, secretKey []byte, now time.Time, validityDuration time.Duration) (string, error) {
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(validityDuration))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry of tokenString. Expired tokens
// yield common.ErrTokenExpired, everything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte, now func() time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// CodecConfig carries the signing secrets and lifetimes of both token kinds.
type CodecConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
}

// Codec issues and verifies access/refresh token pairs.
type Codec struct {
	cfg CodecConfig
	now func() time.Time
}

// NewCodec builds a Codec. A nil now defaults to time.Now.
func NewCodec(cfg CodecConfig, now func() time.Time) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token secrets must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{cfg: cfg, now: now}, nil
}

// IssuePair signs a fresh access token and a refresh token with a new jti.
func (c *Codec) IssuePair(userID string) (*TokenPair, error) {
	now := c.now()

	access, err := GenerateToken(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}, c.cfg.AccessSecret, now, c.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}

	jti := uuid.NewString()
	refresh, err := GenerateToken(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID, ID: jti},
	}, c.cfg.RefreshSecret, now, c.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, RefreshJTI: jti}, nil
}

// VerifyAccess checks an access token against the access secret.
func (c *Codec) VerifyAccess(token string) (*Claims, error) {
	return ParseToken(token, c.cfg.AccessSecret, c.now)
}

// VerifyRefresh checks a refresh token against the refresh secret and
// requires the jti to be present.
func (c *Codec) VerifyRefresh(token string) (*Claims, error) {
	claims, err := ParseToken(token, c.cfg.RefreshSecret, c.now)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
