// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to identities, their refresh token slot and watch history.
type UserRepository interface {
	// Create inserts a new identity. Duplicate username or email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.Identity) error
	// GetByID loads an identity by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Identity, error)
	// GetByUsername loads an identity by username, case-insensitively.
	GetByUsername(ctx context.Context, username string) (*model.Identity, error)
	// GetByLogin loads an identity whose username or email equals login, case-insensitively.
	GetByLogin(ctx context.Context, login string) (*model.Identity, error)
	// GetProfiles loads public profiles for ids. Missing ids are absent from the map.
	GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Profile, error)

	// SetRefreshToken overwrites the stored refresh token.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	// SwapRefreshToken replaces old with next only if old is still the stored value.
	// A lost race or a mismatch yields errs.ErrVersionConflict.
	SwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error
	// ClearRefreshToken empties the stored refresh token.
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error

	// UpdatePassword stores a new encoded password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	// UpdateAccount changes the non-nil fields and returns the updated identity.
	UpdateAccount(ctx context.Context, id uuid.UUID, fullName, email *string) (*model.Identity, error)
	// UpdateAvatar stores a new avatar url.
	UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error
	// UpdateCoverImage stores a new cover image url.
	UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) error

	// PushWatchHistory moves videoID to the end of the watch history, appending it if absent.
	PushWatchHistory(ctx context.Context, id, videoID uuid.UUID) error
}
