package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/input"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
	"github.com/and161185/vidhub/internal/storage"
	"github.com/gofrs/uuid/v5"
)

// AccountService reads and edits the caller's own identity.
type AccountService interface {
	CurrentUser(ctx context.Context, id uuid.UUID) (*model.Identity, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, in input.UpdateAccountInput) (*model.Identity, error)
	// UpdateAvatar stores the new image and deletes the previous one best-effort.
	UpdateAvatar(ctx context.Context, id uuid.UUID, localPath string) (*model.Identity, error)
	// UpdateCoverImage stores the new image and deletes the previous one best-effort.
	UpdateCoverImage(ctx context.Context, id uuid.UUID, localPath string) (*model.Identity, error)
}

type AccountServiceImpl struct {
	users repository.UserRepository
	files storage.FileStorage
	log   *zap.Logger
}

var _ AccountService = (*AccountServiceImpl)(nil)

func NewAccountService(users repository.UserRepository, files storage.FileStorage, log *zap.Logger) *AccountServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountServiceImpl{users: users, files: files, log: log}
}

func (s *AccountServiceImpl) CurrentUser(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AccountServiceImpl) UpdateAccount(ctx context.Context, id uuid.UUID, in input.UpdateAccountInput) (*model.Identity, error) {
	return s.users.UpdateAccount(ctx, id, in.FullName, in.Email)
}

func (s *AccountServiceImpl) UpdateAvatar(ctx context.Context, id uuid.UUID, localPath string) (*model.Identity, error) {
	return s.replaceImage(ctx, id, localPath, "avatar",
		func(u *model.Identity) *string { return &u.Avatar },
		s.users.UpdateAvatar)
}

func (s *AccountServiceImpl) UpdateCoverImage(ctx context.Context, id uuid.UUID, localPath string) (*model.Identity, error) {
	return s.replaceImage(ctx, id, localPath, "cover image",
		func(u *model.Identity) *string { return &u.CoverImage },
		s.users.UpdateCoverImage)
}

func (s *AccountServiceImpl) replaceImage(
	ctx context.Context,
	id uuid.UUID,
	localPath, what string,
	field func(*model.Identity) *string,
	save func(context.Context, uuid.UUID, string) error,
) (*model.Identity, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.files.Store(ctx, localPath)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", what, err)
	}
	if err := save(ctx, id, url); err != nil {
		removeFile(ctx, s.files, s.log, url)
		return nil, err
	}
	slot := field(u)
	old := *slot
	*slot = url
	removeFile(ctx, s.files, s.log, old)
	return u, nil
}
