// Package service contains application services for accounts, sessions, videos and the social graph.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/vidhub/internal/crypto"
	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/input"
	"github.com/and161185/vidhub/internal/limiter"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
	"github.com/and161185/vidhub/internal/storage"
	"github.com/gofrs/uuid/v5"
)

// AuthService defines registration and session operations.
type AuthService interface {
	// Register creates an identity. avatarPath is required, coverPath may be empty.
	Register(ctx context.Context, in input.RegisterInput, avatarPath, coverPath string) (*model.Identity, error)
	// Login applies rate limiting by (login, ip) and issues a token pair.
	Login(ctx context.Context, in input.LoginInput, ip string) (model.TokenPair, *model.Identity, error)
	// Logout revokes the refresh token.
	Logout(ctx context.Context, id uuid.UUID) error
	// Refresh rotates the refresh token.
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	// ChangePassword verifies the old password, stores the new one and revokes the session.
	ChangePassword(ctx context.Context, id uuid.UUID, in input.ChangePasswordInput) error
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens TokenService
	files  storage.FileStorage
	lim    limiter.Limiter
	log    *zap.Logger
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tokens TokenService, files storage.FileStorage, lim limiter.Limiter, log *zap.Logger) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{users: users, tokens: tokens, files: files, lim: lim, log: log}
}

// Register uploads the images, hashes the password and inserts the identity.
// Uploaded files are removed again if the insert fails.
func (s *AuthServiceImpl) Register(ctx context.Context, in input.RegisterInput, avatarPath, coverPath string) (*model.Identity, error) {
	if avatarPath == "" {
		return nil, errs.Validation("avatar file is required")
	}
	for _, login := range []string{in.Username, in.Email} {
		_, err := s.users.GetByLogin(ctx, login)
		if err == nil {
			return nil, fmt.Errorf("user with email or username: %w", errs.ErrAlreadyExists)
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
	}

	hash, err := pkgcrypto.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	avatar, err := s.files.Store(ctx, avatarPath)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}
	var cover string
	if coverPath != "" {
		if cover, err = s.files.Store(ctx, coverPath); err != nil {
			removeFile(ctx, s.files, s.log, avatar)
			return nil, fmt.Errorf("store cover image: %w", err)
		}
	}

	u := &model.Identity{
		ID:           uid,
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       avatar,
		CoverImage:   cover,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		removeFile(ctx, s.files, s.log, avatar)
		removeFile(ctx, s.files, s.log, cover)
		return nil, err
	}
	return s.users.GetByID(ctx, uid)
}

// Login authenticates with rate limiting by (login, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, in input.LoginInput, ip string) (model.TokenPair, *model.Identity, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, in.Login, ipHash)
	if err != nil {
		return model.TokenPair{}, nil, err
	}
	if !allowed {
		return model.TokenPair{}, nil, errs.ErrRateLimited
	}

	u, err := s.users.GetByLogin(ctx, in.Login)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.TokenPair{}, nil, err
	}
	ok := false
	if err == nil {
		if ok, err = pkgcrypto.VerifyPassword(in.Password, u.PasswordHash); err != nil {
			s.log.Error("stored password hash unreadable", zap.String("user", u.ID.String()), zap.Error(err))
		}
	}
	if !ok {
		if blocked, _, ferr := s.lim.Failure(ctx, in.Login, ipHash); ferr == nil && blocked {
			return model.TokenPair{}, nil, errs.ErrRateLimited
		}
		// unknown login and wrong password look the same
		return model.TokenPair{}, nil, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, in.Login, ipHash)

	pair, err := s.tokens.IssueTokenPair(ctx, u)
	if err != nil {
		return model.TokenPair{}, nil, err
	}
	return pair, u, nil
}

// Logout clears the stored refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, id uuid.UUID) error {
	return s.tokens.Revoke(ctx, id)
}

// Refresh rotates the refresh token.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	return s.tokens.Rotate(ctx, refreshToken)
}

// ChangePassword replaces the password hash after checking the old password.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, id uuid.UUID, in input.ChangePasswordInput) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := pkgcrypto.VerifyPassword(in.OldPassword, u.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Validation("old password is incorrect")
	}
	hash, err := pkgcrypto.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, id)
}
