package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec(CodecConfig{
		AccessSecret:  []byte("access-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshSecret: []byte("refresh-secret"),
		RefreshTTL:    7 * 24 * time.Hour,
	}, clock.Now)
	require.NoError(t, err)
	return c
}

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	now := time.Now()

	tok, err := GenerateToken(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"}}, secret, now, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret, time.Now)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, err := GenerateToken(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}, secret, time.Now(), -1*time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret, time.Now)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u2"}}, []byte("right-secret"), time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"), time.Now)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"), time.Now)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u3",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("k"), time.Now)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RequiresExpiry(t *testing.T) {
	t.Parallel()

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u4"}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("k"), time.Now)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestNewCodec_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(CodecConfig{AccessTTL: time.Minute, RefreshTTL: time.Hour}, nil)
	assert.Error(t, err)

	_, err = NewCodec(CodecConfig{AccessSecret: []byte("a"), RefreshSecret: []byte("r")}, nil)
	assert.Error(t, err)
}

func TestCodec_IssuePair(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clock)

	pair, err := c.IssuePair("alice")
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshJTI)

	access, err := c.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", access.UserID())
	assert.Empty(t, access.ID)

	refresh, err := c.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", refresh.UserID())
	assert.Equal(t, pair.RefreshJTI, refresh.ID)

	other, err := c.IssuePair("alice")
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshJTI, other.RefreshJTI)
}

func TestCodec_SecretsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, &fakeClock{t: time.Now()})

	pair, err := c.IssuePair("bob")
	require.NoError(t, err)

	_, err = c.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = c.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCodec_AccessExpiresBeforeRefresh(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clock)

	pair, err := c.IssuePair("carol")
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour)

	_, err = c.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	_, err = c.VerifyRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}
