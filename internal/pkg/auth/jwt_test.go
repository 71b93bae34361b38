package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "unit-test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "psych-lms",
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	for _, id := range []int64{1, 42, 9_000_000_001} {
		pair, err := svc.GenerateTokenPair(id, "a@x.com")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, 3600, pair.ExpiresIn)
		assert.Equal(t, 86400, pair.RefreshExpiresIn)

		claims, userID, err := svc.ValidateAndExtractClaims(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, id, userID)
		assert.Equal(t, "a@x.com", claims.Email)
		assert.Equal(t, "psych-lms", claims.Issuer)
		assert.NotEmpty(t, claims.ID)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	svc := newTestService()
	pair, err := svc.GenerateTokenPair(7, "b@x.com")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTestService()
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, _, err := later.ValidateAndExtractClaims(pair.AccessToken)
		assert.True(t, errors.Is(err, apperrors.ErrTokenExpired))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "psych-lms"})
		_, _, err := other.ValidateAndExtractClaims(pair.AccessToken)
		assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(JWTConfig{SecretKey: "unit-test-secret", AccessTokenExp: time.Hour, TokenIssuer: "elsewhere"})
		_, _, err := other.ValidateAndExtractClaims(pair.AccessToken)
		assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := svc.ValidateAndExtractClaims("not.a.jwt")
		assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
		_, _, err = svc.ValidateAndExtractClaims("")
		assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
	})

	t.Run("non numeric subject", func(t *testing.T) {
		claims := &Claims{
			Email: "c@x.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "abc",
				Issuer:    "psych-lms",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
		require.NoError(t, err)
		_, _, err = svc.ValidateAndExtractClaims(signed)
		assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{
			Email: "c@x.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "7",
				Issuer:    "psych-lms",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, _, err = svc.ValidateAndExtractClaims(signed)
		assert.True(t, errors.Is(err, apperrors.ErrTokenInvalid))
	})
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	tok, err = ExtractBearerToken("bearer   xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "abc.def.ghi", "Basic dXNlcjpwdw==", "Bearer "} {
		_, err := ExtractBearerToken(h)
		assert.Error(t, err, h)
	}
}

func TestPasswordHashing(t *testing.T) {
	BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { BcryptCost = 12 })

	hash, err := HashPassword("pw123456")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", hash)
	assert.True(t, CheckPassword(hash, "pw123456"))
	assert.False(t, CheckPassword(hash, "pw1234567"))
	assert.False(t, CheckPassword("not-a-hash", "pw123456"))
}
