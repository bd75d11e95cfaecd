package service

import (
	"context"
	"fmt"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// RelationService toggles subscription and like edges.
// Each toggle reports whether the edge exists afterwards.
type RelationService interface {
	ToggleSubscription(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	ToggleVideoLike(ctx context.Context, actorID, videoID uuid.UUID) (bool, error)
	ToggleCommentLike(ctx context.Context, actorID, commentID uuid.UUID) (bool, error)
}

type RelationServiceImpl struct {
	users    repository.UserRepository
	videos   repository.VideoRepository
	comments repository.CommentRepository
	edges    repository.RelationRepository
}

var _ RelationService = (*RelationServiceImpl)(nil)

func NewRelationService(users repository.UserRepository, videos repository.VideoRepository, comments repository.CommentRepository, edges repository.RelationRepository) *RelationServiceImpl {
	return &RelationServiceImpl{users: users, videos: videos, comments: comments, edges: edges}
}

// ToggleSubscription requires the channel identity to exist.
func (s *RelationServiceImpl) ToggleSubscription(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return false, fmt.Errorf("channel %s: %w", channelID, err)
	}
	return s.edges.ToggleSubscription(ctx, subscriberID, channelID)
}

// ToggleVideoLike requires the video to exist.
func (s *RelationServiceImpl) ToggleVideoLike(ctx context.Context, actorID, videoID uuid.UUID) (bool, error) {
	ok, err := s.videos.Exists(ctx, videoID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("video %s: %w", videoID, errs.ErrNotFound)
	}
	return s.edges.ToggleLike(ctx, actorID, videoID, model.TargetVideo)
}

// ToggleCommentLike requires the comment to exist.
func (s *RelationServiceImpl) ToggleCommentLike(ctx context.Context, actorID, commentID uuid.UUID) (bool, error) {
	ok, err := s.comments.Exists(ctx, commentID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("comment %s: %w", commentID, errs.ErrNotFound)
	}
	return s.edges.ToggleLike(ctx, actorID, commentID, model.TargetComment)
}
