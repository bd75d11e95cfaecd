package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/input"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// PlaylistService mutates playlists. Only the owner may change a playlist.
type PlaylistService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in input.CreatePlaylistInput) (*model.Playlist, error)
	Update(ctx context.Context, playlistID, ownerID uuid.UUID, in input.UpdatePlaylistInput) (*model.Playlist, error)
	Delete(ctx context.Context, playlistID, ownerID uuid.UUID) error
	// AddVideo appends a published video that is not yet a member.
	AddVideo(ctx context.Context, playlistID, videoID, ownerID uuid.UUID) (*model.Playlist, error)
	// RemoveVideo drops a member video.
	RemoveVideo(ctx context.Context, playlistID, videoID, ownerID uuid.UUID) (*model.Playlist, error)
}

type PlaylistServiceImpl struct {
	playlists repository.PlaylistRepository
	videos    repository.VideoRepository
}

var _ PlaylistService = (*PlaylistServiceImpl)(nil)

func NewPlaylistService(playlists repository.PlaylistRepository, videos repository.VideoRepository) *PlaylistServiceImpl {
	return &PlaylistServiceImpl{playlists: playlists, videos: videos}
}

func (s *PlaylistServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, in input.CreatePlaylistInput) (*model.Playlist, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	p := &model.Playlist{ID: id, OwnerID: ownerID, Name: in.Name, Description: in.Description}
	if err := s.playlists.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.playlists.GetByID(ctx, id)
}

func (s *PlaylistServiceImpl) Update(ctx context.Context, playlistID, ownerID uuid.UUID, in input.UpdatePlaylistInput) (*model.Playlist, error) {
	if _, err := s.owned(ctx, playlistID, ownerID); err != nil {
		return nil, err
	}
	return s.playlists.Update(ctx, playlistID, in.Name, in.Description)
}

func (s *PlaylistServiceImpl) Delete(ctx context.Context, playlistID, ownerID uuid.UUID) error {
	if _, err := s.owned(ctx, playlistID, ownerID); err != nil {
		return err
	}
	return s.playlists.Delete(ctx, playlistID)
}

func (s *PlaylistServiceImpl) AddVideo(ctx context.Context, playlistID, videoID, ownerID uuid.UUID) (*model.Playlist, error) {
	p, err := s.owned(ctx, playlistID, ownerID)
	if err != nil {
		return nil, err
	}
	if p.Contains(videoID) {
		return nil, errs.Validation("video is already part of this playlist")
	}
	published, err := s.videos.IsPublished(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", videoID, err)
	}
	if !published {
		return nil, errs.Validation("only published videos can be added to a playlist")
	}
	if err := s.playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return nil, errs.Validation("video is already part of this playlist")
		}
		return nil, err
	}
	return s.playlists.GetByID(ctx, playlistID)
}

func (s *PlaylistServiceImpl) RemoveVideo(ctx context.Context, playlistID, videoID, ownerID uuid.UUID) (*model.Playlist, error) {
	p, err := s.owned(ctx, playlistID, ownerID)
	if err != nil {
		return nil, err
	}
	if !p.Contains(videoID) {
		return nil, errs.Validation("video is not part of this playlist")
	}
	if err := s.playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Validation("video is not part of this playlist")
		}
		return nil, err
	}
	return s.playlists.GetByID(ctx, playlistID)
}

func (s *PlaylistServiceImpl) owned(ctx context.Context, playlistID, ownerID uuid.UUID) (*model.Playlist, error) {
	p, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("playlist %s: %w", playlistID, err)
	}
	if p.OwnerID != ownerID {
		return nil, fmt.Errorf("playlist %s: %w", playlistID, errs.ErrUnauthorized)
	}
	return p, nil
}
