package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues, verifies, rotates and revokes session tokens.
//
// At most one refresh token per identity is valid: it is whatever the identity row
// currently stores. Rotation replaces it with a compare-and-swap, so a superseded
// token, or the loser of two concurrent rotations, fails with errs.ErrTokenStale.
type TokenService interface {
	// IssueTokenPair signs a new pair and stores the refresh token before returning it.
	IssueTokenPair(ctx context.Context, u *model.Identity) (model.TokenPair, error)
	// VerifyAccess checks signature and expiry of an access token. It never consults storage.
	VerifyAccess(token string) (model.AccessClaims, error)
	// Rotate exchanges the current refresh token for a new pair.
	Rotate(ctx context.Context, refreshToken string) (model.TokenPair, error)
	// Revoke clears the stored refresh token.
	Revoke(ctx context.Context, identityID uuid.UUID) error
}

// TokenConfig holds signing keys and lifetimes. The two keys must differ.
type TokenConfig struct {
	AccessKey  []byte
	RefreshKey []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

type TokenServiceImpl struct {
	users repository.UserRepository
	cfg   TokenConfig
	now   func() time.Time
}

var _ TokenService = (*TokenServiceImpl)(nil)

// NewTokenService constructs TokenService.
func NewTokenService(users repository.UserRepository, cfg TokenConfig) *TokenServiceImpl {
	return &TokenServiceImpl{users: users, cfg: cfg, now: time.Now}
}

type accessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// IssueTokenPair overwrites the stored refresh token with a freshly signed one.
func (s *TokenServiceImpl) IssueTokenPair(ctx context.Context, u *model.Identity) (model.TokenPair, error) {
	pair, err := s.sign(u)
	if err != nil {
		return model.TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return model.TokenPair{}, persistenceErr("store refresh token", err)
	}
	return pair, nil
}

// VerifyAccess parses an HS256 access token.
func (s *TokenServiceImpl) VerifyAccess(token string) (model.AccessClaims, error) {
	var c accessClaims
	if err := s.parse(token, s.cfg.AccessKey, &c); err != nil {
		return model.AccessClaims{}, err
	}
	id, err := uuid.FromString(c.Subject)
	if err != nil || id == uuid.Nil {
		return model.AccessClaims{}, errs.ErrTokenInvalid
	}
	out := model.AccessClaims{IdentityID: id, Username: c.Username, Email: c.Email, FullName: c.FullName}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// Rotate verifies the refresh token, checks it against the stored one and swaps in a new pair.
func (s *TokenServiceImpl) Rotate(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	var c jwt.RegisteredClaims
	if err := s.parse(refreshToken, s.cfg.RefreshKey, &c); err != nil {
		return model.TokenPair{}, err
	}
	id, err := uuid.FromString(c.Subject)
	if err != nil || id == uuid.Nil {
		return model.TokenPair{}, errs.ErrTokenInvalid
	}

	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return model.TokenPair{}, errs.ErrTokenInvalid
	}
	if err != nil {
		return model.TokenPair{}, persistenceErr("load identity", err)
	}
	if u.RefreshToken == nil || *u.RefreshToken != refreshToken {
		return model.TokenPair{}, errs.ErrTokenStale
	}

	pair, err := s.sign(u)
	if err != nil {
		return model.TokenPair{}, err
	}
	// The stored value may have changed since the read above; the swap is the decision point.
	switch err := s.users.SwapRefreshToken(ctx, id, refreshToken, pair.RefreshToken); {
	case errors.Is(err, errs.ErrVersionConflict):
		return model.TokenPair{}, errs.ErrTokenStale
	case err != nil:
		return model.TokenPair{}, persistenceErr("swap refresh token", err)
	}
	return pair, nil
}

// Revoke clears the stored refresh token.
func (s *TokenServiceImpl) Revoke(ctx context.Context, identityID uuid.UUID) error {
	if err := s.users.ClearRefreshToken(ctx, identityID); err != nil {
		return persistenceErr("clear refresh token", err)
	}
	return nil
}

func (s *TokenServiceImpl) sign(u *model.Identity) (model.TokenPair, error) {
	now := s.now()
	accessExp := now.Add(s.cfg.AccessTTL)
	refreshExp := now.Add(s.cfg.RefreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	accessStr, err := access.SignedString(s.cfg.AccessKey)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	jti, err := uuid.NewV4()
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		ID:        jti.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(refreshExp),
	})
	refreshStr, err := refresh.SignedString(s.cfg.RefreshKey)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return model.TokenPair{
		AccessToken:      accessStr,
		RefreshToken:     refreshStr,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenServiceImpl) parse(token string, key []byte, claims jwt.Claims) error {
	if token == "" {
		return errs.ErrTokenInvalid
	}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.cfg.Leeway),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return errs.ErrTokenExpired
	default:
		return errs.ErrTokenInvalid
	}
}

// persistenceErr keeps an existing ErrPersistence chain and wraps anything else into one.
func persistenceErr(op string, err error) error {
	if errors.Is(err, errs.ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return errs.Persistence(op, err)
}
