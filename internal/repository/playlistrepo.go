package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// PlaylistRepository stores playlists and their ordered membership.
type PlaylistRepository interface {
	Create(ctx context.Context, p *model.Playlist) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Playlist, error)
	// ListByOwner returns the owner's playlists in creation order.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Playlist, error)
	// Update changes the non-nil fields and returns the updated playlist.
	Update(ctx context.Context, id uuid.UUID, name, description *string) (*model.Playlist, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// AddVideo appends videoID; errs.ErrAlreadyExists when it is already a member.
	AddVideo(ctx context.Context, id, videoID uuid.UUID) error
	// RemoveVideo drops videoID; errs.ErrNotFound when it is not a member.
	RemoveVideo(ctx context.Context, id, videoID uuid.UUID) error
}
