package repository

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// RelationRepository stores subscription and like edges.
// List methods return ids in edge insertion order.
type RelationRepository interface {
	// ToggleSubscription removes the edge when present, otherwise creates it.
	// It reports whether the edge exists afterwards.
	ToggleSubscription(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error)
	ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error)
	ListSubscribedChannels(ctx context.Context, subscriberID uuid.UUID) ([]uuid.UUID, error)

	// ToggleLike removes the like when present, otherwise creates it.
	// It reports whether the like exists afterwards.
	ToggleLike(ctx context.Context, actorID, targetID uuid.UUID, kind model.TargetKind) (bool, error)
	// ListLiked returns the targets of the given kind liked by actorID.
	ListLiked(ctx context.Context, actorID uuid.UUID, kind model.TargetKind) ([]uuid.UUID, error)
}
