package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/apperrors"
)

// JWTConfig defines JWT configuration settings
type JWTConfig struct {
	SecretKey       string
	AccessTokenExp  time.Duration
	RefreshTokenExp time.Duration
	TokenIssuer     string
}

// JWTService handles JWT operations
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{
		config: config,
		now:    time.Now,
	}
}

// Claims carries the access token payload. The user id lives in the
// registered "sub" claim only.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID decodes the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ErrTokenInvalid
	}
	return id, nil
}

// TokenPair is the result of a successful login, register or refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int
	RefreshExpiresIn int
	RefreshExpiresAt time.Time
}

// GenerateTokenPair creates an access token for the user and an opaque refresh token.
func (s *JWTService) GenerateTokenPair(userID int64, email string) (*TokenPair, error) {
	issuedAt := s.now()

	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExp)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Issuer:    s.config.TokenIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     uuid.New().String(),
		ExpiresIn:        int(s.config.AccessTokenExp.Seconds()),
		RefreshExpiresIn: int(s.config.RefreshTokenExp.Seconds()),
		RefreshExpiresAt: issuedAt.Add(s.config.RefreshTokenExp),
	}, nil
}

// ValidateToken verifies signature, algorithm, issuer and time claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.TokenIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.TokenIssuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.SecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

// ValidateAndExtractClaims validates a token and returns its claims together
// with the decoded user id.
func (s *JWTService) ValidateAndExtractClaims(tokenString string) (*Claims, int64, error) {
	if tokenString == "" {
		return nil, 0, apperrors.ErrTokenInvalid
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, 0, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, 0, err
	}
	if claims.Email == "" {
		return nil, 0, apperrors.ErrTokenInvalid
	}

	return claims, userID, nil
}

// ExtractBearerToken extracts the token from an Authorization header value.
// The "Bearer" scheme is mandatory (case-insensitive).
func ExtractBearerToken(authHeader string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected Bearer scheme", apperrors.ErrTokenInvalid)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", apperrors.ErrTokenInvalid)
	}
	return token, nil
}
