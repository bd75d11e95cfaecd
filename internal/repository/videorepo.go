package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// VideoRepository provides access to video content records.
type VideoRepository interface {
	Create(ctx context.Context, v *model.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)
	// GetByIDs loads videos for ids. Missing ids are absent from the map.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Video, error)
	// List returns one page of videos matching q and the total number of matches.
	List(ctx context.Context, q model.VideoQuery) ([]model.Video, int64, error)
	// Update stores title, description and thumbnail of v.
	Update(ctx context.Context, v *model.Video) error
	// TogglePublished flips the publish flag and returns the new value.
	TogglePublished(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// IsPublished reports the publish flag; errs.ErrNotFound when the video is missing.
	IsPublished(ctx context.Context, id uuid.UUID) (bool, error)
}

// CommentRepository provides access to comments on videos.
type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// ListByVideo returns comments on a video, oldest first.
	ListByVideo(ctx context.Context, videoID uuid.UUID) ([]model.Comment, error)
}
