package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/input"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
	"github.com/and161185/vidhub/internal/storage"
	"github.com/gofrs/uuid/v5"
)

// VideoService publishes and edits videos and their comments.
// Drafts are visible to their owner only; to anyone else they do not exist.
type VideoService interface {
	Publish(ctx context.Context, ownerID uuid.UUID, in input.PublishVideoInput, videoPath, thumbnailPath string) (*model.Video, error)
	// View returns the video and moves it to the end of the viewer's watch history.
	View(ctx context.Context, videoID, viewerID uuid.UUID) (*model.Video, error)
	// Update changes details; a non-empty thumbnailPath replaces the thumbnail.
	Update(ctx context.Context, videoID, ownerID uuid.UUID, in input.UpdateVideoInput, thumbnailPath string) (*model.Video, error)
	Delete(ctx context.Context, videoID, ownerID uuid.UUID) error
	TogglePublish(ctx context.Context, videoID, ownerID uuid.UUID) (bool, error)
	List(ctx context.Context, q model.VideoQuery) (model.VideoPage, error)

	AddComment(ctx context.Context, videoID, ownerID uuid.UUID, content string) (*model.Comment, error)
	Comments(ctx context.Context, videoID, viewerID uuid.UUID) ([]model.Comment, error)
}

type VideoServiceImpl struct {
	videos   repository.VideoRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	files    storage.FileStorage
	log      *zap.Logger
}

var _ VideoService = (*VideoServiceImpl)(nil)

func NewVideoService(videos repository.VideoRepository, comments repository.CommentRepository, users repository.UserRepository, files storage.FileStorage, log *zap.Logger) *VideoServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &VideoServiceImpl{videos: videos, comments: comments, users: users, files: files, log: log}
}

// Publish uploads both files; a failed upload aborts and removes whatever was stored.
func (s *VideoServiceImpl) Publish(ctx context.Context, ownerID uuid.UUID, in input.PublishVideoInput, videoPath, thumbnailPath string) (*model.Video, error) {
	if videoPath == "" || thumbnailPath == "" {
		return nil, errs.Validation("video file and thumbnail are required")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	videoURL, err := s.files.Store(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("store video: %w", err)
	}
	thumbURL, err := s.files.Store(ctx, thumbnailPath)
	if err != nil {
		removeFile(ctx, s.files, s.log, videoURL)
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	v := &model.Video{
		ID:          id,
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Duration:    in.Duration,
		IsPublished: true,
	}
	if err := s.videos.Create(ctx, v); err != nil {
		removeFile(ctx, s.files, s.log, videoURL)
		removeFile(ctx, s.files, s.log, thumbURL)
		return nil, err
	}
	return s.videos.GetByID(ctx, id)
}

// View records the view before returning the video.
func (s *VideoServiceImpl) View(ctx context.Context, videoID, viewerID uuid.UUID) (*model.Video, error) {
	v, err := s.visible(ctx, videoID, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.users.PushWatchHistory(ctx, viewerID, videoID); err != nil {
		return nil, err
	}
	return v, nil
}

// Update replaces the thumbnail first so a failed upload leaves the video untouched.
func (s *VideoServiceImpl) Update(ctx context.Context, videoID, ownerID uuid.UUID, in input.UpdateVideoInput, thumbnailPath string) (*model.Video, error) {
	v, err := s.owned(ctx, videoID, ownerID)
	if err != nil {
		return nil, err
	}
	if in.Title == nil && in.Description == nil && thumbnailPath == "" {
		return nil, errs.Validation("nothing to update")
	}
	if in.Title != nil {
		v.Title = *in.Title
	}
	if in.Description != nil {
		v.Description = *in.Description
	}
	oldThumb := ""
	if thumbnailPath != "" {
		url, err := s.files.Store(ctx, thumbnailPath)
		if err != nil {
			return nil, fmt.Errorf("store thumbnail: %w", err)
		}
		oldThumb, v.Thumbnail = v.Thumbnail, url
	}
	if err := s.videos.Update(ctx, v); err != nil {
		if oldThumb != "" {
			removeFile(ctx, s.files, s.log, v.Thumbnail)
		}
		return nil, err
	}
	removeFile(ctx, s.files, s.log, oldThumb)
	return s.videos.GetByID(ctx, videoID)
}

// Delete removes the row, then the files best-effort.
func (s *VideoServiceImpl) Delete(ctx context.Context, videoID, ownerID uuid.UUID) error {
	v, err := s.owned(ctx, videoID, ownerID)
	if err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, videoID); err != nil {
		return err
	}
	removeFile(ctx, s.files, s.log, v.VideoFile)
	removeFile(ctx, s.files, s.log, v.Thumbnail)
	return nil
}

// TogglePublish flips the publish flag and returns the new value.
func (s *VideoServiceImpl) TogglePublish(ctx context.Context, videoID, ownerID uuid.UUID) (bool, error) {
	if _, err := s.owned(ctx, videoID, ownerID); err != nil {
		return false, err
	}
	return s.videos.TogglePublished(ctx, videoID)
}

// List returns one page; q.ViewerID additionally sees their own drafts.
func (s *VideoServiceImpl) List(ctx context.Context, q model.VideoQuery) (model.VideoPage, error) {
	vids, total, err := s.videos.List(ctx, q)
	if err != nil {
		return model.VideoPage{}, err
	}
	return model.VideoPage{Videos: vids, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

func (s *VideoServiceImpl) AddComment(ctx context.Context, videoID, ownerID uuid.UUID, content string) (*model.Comment, error) {
	if _, err := s.visible(ctx, videoID, ownerID); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	c := &model.Comment{ID: id, VideoID: videoID, OwnerID: ownerID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *VideoServiceImpl) Comments(ctx context.Context, videoID, viewerID uuid.UUID) ([]model.Comment, error) {
	if _, err := s.visible(ctx, videoID, viewerID); err != nil {
		return nil, err
	}
	return s.comments.ListByVideo(ctx, videoID)
}

func (s *VideoServiceImpl) visible(ctx context.Context, videoID, viewerID uuid.UUID) (*model.Video, error) {
	v, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", videoID, err)
	}
	if !v.IsPublished && v.OwnerID != viewerID {
		return nil, fmt.Errorf("video %s: %w", videoID, errs.ErrNotFound)
	}
	return v, nil
}

func (s *VideoServiceImpl) owned(ctx context.Context, videoID, ownerID uuid.UUID) (*model.Video, error) {
	v, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", videoID, err)
	}
	if v.OwnerID != ownerID {
		return nil, fmt.Errorf("video %s: %w", videoID, errs.ErrUnauthorized)
	}
	return v, nil
}
