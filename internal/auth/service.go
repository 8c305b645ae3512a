// File: internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims is the payload of tokens issued by JWTService. The subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 tokens signed with JWT_SECRET_KEY.
type JWTService struct {
	cfg       *config.Config
	blocklist TokenBlocklistService
	logger    *zap.Logger
	now       func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg *config.Config, blocklist TokenBlocklistService, logger *zap.Logger) *JWTService {
	return &JWTService{cfg: cfg, blocklist: blocklist, logger: logger, now: time.Now}
}

// GenerateAccessToken issues a token for viewer that expires after JWT_ACCESS_TOKEN_EXPIRY_MINUTES.
func (s *JWTService) GenerateAccessToken(viewer domain.Viewer) (string, time.Time, error) {
	if viewer.UserID == "" {
		return "", time.Time{}, errors.New("cannot issue a token without a user id")
	}
	issuedAt := s.now()
	expirationTime := issuedAt.Add(s.cfg.JWTAccessTokenExpiry)

	claims := &Claims{
		Role: viewer.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    s.cfg.JWTIssuer,
			Subject:   viewer.UserID,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign access token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// Verify validates tokenString and returns the viewer it was issued for.
func (s *JWTService) Verify(ctx context.Context, tokenString string) (*domain.Viewer, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blocklist.IsBlocklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking token blocklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return &domain.Viewer{UserID: claims.Subject, Role: domain.NormalizeRole(claims.Role)}, nil
}

// Revoke blocks the token until it expires.
func (s *JWTService) Revoke(ctx context.Context, tokenString string, viewer domain.Viewer) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if err := s.blocklist.AddToBlocklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	s.logger.Info("Revoked access token", zap.String("userID", viewer.UserID), zap.String("jti", claims.ID))
	return nil
}

func (s *JWTService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.JWTIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.Debug("Failed to validate token", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
