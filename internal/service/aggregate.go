package service

import (
	"context"
	"fmt"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// AggregateService composes read-only views over edges, identities and videos.
//
// Entries whose identity or video no longer exists are left out of lists.
// Counts are edge cardinalities, so they can be larger than the lists they describe.
// Lists keep the order of the underlying edges or arrays and drop repeated ids.
type AggregateService interface {
	ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (model.ChannelProfile, error)
	Subscribers(ctx context.Context, channelID uuid.UUID) (model.ProfileList, error)
	SubscribedChannels(ctx context.Context, subscriberID uuid.UUID) (model.ProfileList, error)
	WatchHistory(ctx context.Context, viewerID uuid.UUID) ([]model.HistoryEntry, error)
	// PlaylistContents is readable by the playlist owner only.
	PlaylistContents(ctx context.Context, playlistID, viewerID uuid.UUID) (model.PlaylistContents, error)
	UserPlaylists(ctx context.Context, ownerID, viewerID uuid.UUID) ([]model.PlaylistContents, error)
	LikedVideos(ctx context.Context, actorID uuid.UUID) ([]model.Video, error)
}

type AggregateServiceImpl struct {
	users     repository.UserRepository
	videos    repository.VideoRepository
	playlists repository.PlaylistRepository
	edges     repository.RelationRepository
}

var _ AggregateService = (*AggregateServiceImpl)(nil)

func NewAggregateService(users repository.UserRepository, videos repository.VideoRepository, playlists repository.PlaylistRepository, edges repository.RelationRepository) *AggregateServiceImpl {
	return &AggregateServiceImpl{users: users, videos: videos, playlists: playlists, edges: edges}
}

// ChannelProfile resolves username and counts edges at query time.
func (s *AggregateServiceImpl) ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (model.ChannelProfile, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.ChannelProfile{}, fmt.Errorf("channel %q: %w", username, err)
	}
	subscribers, err := s.edges.CountSubscribers(ctx, u.ID)
	if err != nil {
		return model.ChannelProfile{}, err
	}
	subscribedTo, err := s.edges.CountSubscribedTo(ctx, u.ID)
	if err != nil {
		return model.ChannelProfile{}, err
	}
	var isSubscribed bool
	if viewerID != uuid.Nil {
		if isSubscribed, err = s.edges.IsSubscribed(ctx, viewerID, u.ID); err != nil {
			return model.ChannelProfile{}, err
		}
	}
	return model.ChannelProfile{
		Profile:           u.Profile(),
		Email:             u.Email,
		CoverImage:        u.CoverImage,
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

// Subscribers lists who subscribes to channelID, oldest subscription first.
func (s *AggregateServiceImpl) Subscribers(ctx context.Context, channelID uuid.UUID) (model.ProfileList, error) {
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return model.ProfileList{}, fmt.Errorf("channel %s: %w", channelID, err)
	}
	ids, err := s.edges.ListSubscribers(ctx, channelID)
	if err != nil {
		return model.ProfileList{}, err
	}
	return s.profileList(ctx, ids)
}

// SubscribedChannels lists the channels subscriberID follows, oldest subscription first.
func (s *AggregateServiceImpl) SubscribedChannels(ctx context.Context, subscriberID uuid.UUID) (model.ProfileList, error) {
	if _, err := s.users.GetByID(ctx, subscriberID); err != nil {
		return model.ProfileList{}, fmt.Errorf("subscriber %s: %w", subscriberID, err)
	}
	ids, err := s.edges.ListSubscribedChannels(ctx, subscriberID)
	if err != nil {
		return model.ProfileList{}, err
	}
	return s.profileList(ctx, ids)
}

func (s *AggregateServiceImpl) profileList(ctx context.Context, ids []uuid.UUID) (model.ProfileList, error) {
	uniq := uniqueIDs(ids)
	profiles, err := s.users.GetProfiles(ctx, uniq)
	if err != nil {
		return model.ProfileList{}, err
	}
	out := model.ProfileList{Profiles: make([]model.Profile, 0, len(uniq)), Total: int64(len(ids))}
	for _, id := range uniq {
		if p, ok := profiles[id]; ok {
			out.Profiles = append(out.Profiles, p)
		}
	}
	return out, nil
}

// WatchHistory returns watched videos most-recent-last, each with its owner's profile.
func (s *AggregateServiceImpl) WatchHistory(ctx context.Context, viewerID uuid.UUID) ([]model.HistoryEntry, error) {
	u, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	vids, err := s.resolveVideos(ctx, u.WatchHistory, viewerID)
	if err != nil {
		return nil, err
	}

	ownerIDs := make([]uuid.UUID, 0, len(vids))
	for _, v := range vids {
		ownerIDs = append(ownerIDs, v.OwnerID)
	}
	owners, err := s.users.GetProfiles(ctx, uniqueIDs(ownerIDs))
	if err != nil {
		return nil, err
	}

	out := make([]model.HistoryEntry, 0, len(vids))
	for _, v := range vids {
		owner, ok := owners[v.OwnerID]
		if !ok {
			continue
		}
		out = append(out, model.HistoryEntry{Video: v, Owner: owner})
	}
	return out, nil
}

// PlaylistContents returns the playlist with member videos in insertion order.
func (s *AggregateServiceImpl) PlaylistContents(ctx context.Context, playlistID, viewerID uuid.UUID) (model.PlaylistContents, error) {
	p, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return model.PlaylistContents{}, err
	}
	if p.OwnerID != viewerID {
		return model.PlaylistContents{}, fmt.Errorf("playlist %s: %w", playlistID, errs.ErrUnauthorized)
	}
	items, err := s.resolveVideos(ctx, p.Videos, viewerID)
	if err != nil {
		return model.PlaylistContents{}, err
	}
	return model.PlaylistContents{Playlist: *p, Items: items}, nil
}

// UserPlaylists returns every playlist of ownerID, oldest first, with contents resolved in one batch.
func (s *AggregateServiceImpl) UserPlaylists(ctx context.Context, ownerID, viewerID uuid.UUID) ([]model.PlaylistContents, error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("user %s: %w", ownerID, err)
	}
	lists, err := s.playlists.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var all []uuid.UUID
	for _, p := range lists {
		all = append(all, p.Videos...)
	}
	byID, err := s.videos.GetByIDs(ctx, uniqueIDs(all))
	if err != nil {
		return nil, err
	}
	out := make([]model.PlaylistContents, 0, len(lists))
	for _, p := range lists {
		out = append(out, model.PlaylistContents{Playlist: p, Items: pickVideos(p.Videos, byID, viewerID)})
	}
	return out, nil
}

// LikedVideos returns videos actorID liked, oldest like first.
func (s *AggregateServiceImpl) LikedVideos(ctx context.Context, actorID uuid.UUID) ([]model.Video, error) {
	ids, err := s.edges.ListLiked(ctx, actorID, model.TargetVideo)
	if err != nil {
		return nil, err
	}
	return s.resolveVideos(ctx, ids, actorID)
}

func (s *AggregateServiceImpl) resolveVideos(ctx context.Context, ids []uuid.UUID, viewerID uuid.UUID) ([]model.Video, error) {
	ids = uniqueIDs(ids)
	byID, err := s.videos.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return pickVideos(ids, byID, viewerID), nil
}

// pickVideos maps ids to videos in order, skipping missing ones and drafts of other owners.
func pickVideos(ids []uuid.UUID, byID map[uuid.UUID]model.Video, viewerID uuid.UUID) []model.Video {
	out := make([]model.Video, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		v, ok := byID[id]
		if !ok || (!v.IsPublished && v.OwnerID != viewerID) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// uniqueIDs keeps the first occurrence of every id.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
