// Package convert maps domain models to the JSON views sent to clients.
// Secrets (password hash, refresh token) never leave through these views.
package convert

import (
	"time"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// --- identities ---

// User is the caller's own account.
type User struct {
	ID         uuid.UUID `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Profile is the public part of another account.
type Profile struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username"`
	FullName string    `json:"fullName"`
	Avatar   string    `json:"avatar"`
}

// Channel is the channel page of an account.
type Channel struct {
	Profile
	Email             string `json:"email"`
	CoverImage        string `json:"coverImage"`
	SubscribersCount  int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// Subscribers lists who follows a channel.
type Subscribers struct {
	Subscribers      []Profile `json:"subscribers"`
	TotalSubscribers int64     `json:"totalSubscribers"`
}

// Subscriptions lists the channels an account follows.
type Subscriptions struct {
	Channels      []Profile `json:"channels"`
	TotalChannels int64     `json:"totalChannels"`
}

// Session is handed out by login and refresh. Tokens are also set as cookies.
type Session struct {
	User         *User  `json:"user,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func ToUser(i *model.Identity) *User {
	if i == nil {
		return nil
	}
	return &User{
		ID:         i.ID,
		Username:   i.Username,
		Email:      i.Email,
		FullName:   i.FullName,
		Avatar:     i.Avatar,
		CoverImage: i.CoverImage,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

func ToProfile(p model.Profile) Profile {
	return Profile{ID: p.ID, Username: p.Username, FullName: p.FullName, Avatar: p.Avatar}
}

// ToProfiles never returns nil so empty lists encode as [].
func ToProfiles(ps []model.Profile) []Profile {
	out := make([]Profile, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToProfile(p))
	}
	return out
}

func ToChannel(c model.ChannelProfile) Channel {
	return Channel{
		Profile:           ToProfile(c.Profile),
		Email:             c.Email,
		CoverImage:        c.CoverImage,
		SubscribersCount:  c.SubscriberCount,
		SubscribedToCount: c.SubscribedToCount,
		IsSubscribed:      c.IsSubscribed,
	}
}

func ToSubscribers(l model.ProfileList) Subscribers {
	return Subscribers{Subscribers: ToProfiles(l.Profiles), TotalSubscribers: l.Total}
}

func ToSubscriptions(l model.ProfileList) Subscriptions {
	return Subscriptions{Channels: ToProfiles(l.Profiles), TotalChannels: l.Total}
}

// ToSession pairs tokens with the identity they were issued for; i may be nil.
func ToSession(p model.TokenPair, i *model.Identity) Session {
	return Session{User: ToUser(i), AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

// --- videos ---

type Video struct {
	ID          uuid.UUID `json:"_id"`
	Owner       uuid.UUID `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VideoPage is one page of the listing.
type VideoPage struct {
	Videos     []Video `json:"videos"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int64   `json:"totalVideos"`
	TotalPages int64   `json:"totalPages"`
}

// HistoryEntry is a watched video with its owner expanded.
type HistoryEntry struct {
	Video
	OwnerProfile Profile `json:"ownerDetails"`
}

type Comment struct {
	ID        uuid.UUID `json:"_id"`
	Video     uuid.UUID `json:"video"`
	Owner     uuid.UUID `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Published answers a publish toggle.
type Published struct {
	IsPublished bool `json:"isPublished"`
}

func ToVideo(v model.Video) Video {
	return Video{
		ID:          v.ID,
		Owner:       v.OwnerID,
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		IsPublished: v.IsPublished,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func ToVideos(vs []model.Video) []Video {
	out := make([]Video, 0, len(vs))
	for _, v := range vs {
		out = append(out, ToVideo(v))
	}
	return out
}

func ToVideoPage(p model.VideoPage) VideoPage {
	var pages int64
	if p.Limit > 0 {
		pages = (p.Total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return VideoPage{Videos: ToVideos(p.Videos), Page: p.Page, Limit: p.Limit, Total: p.Total, TotalPages: pages}
}

func ToHistory(es []model.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(es))
	for _, e := range es {
		out = append(out, HistoryEntry{Video: ToVideo(e.Video), OwnerProfile: ToProfile(e.Owner)})
	}
	return out
}

func ToComment(c model.Comment) Comment {
	return Comment{ID: c.ID, Video: c.VideoID, Owner: c.OwnerID, Content: c.Content, CreatedAt: c.CreatedAt}
}

func ToComments(cs []model.Comment) []Comment {
	out := make([]Comment, 0, len(cs))
	for _, c := range cs {
		out = append(out, ToComment(c))
	}
	return out
}

// --- playlists ---

// Playlist carries member ids only.
type Playlist struct {
	ID          uuid.UUID   `json:"_id"`
	Owner       uuid.UUID   `json:"owner"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Videos      []uuid.UUID `json:"videos"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// PlaylistContents carries resolved member videos.
type PlaylistContents struct {
	ID          uuid.UUID `json:"_id"`
	Owner       uuid.UUID `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Videos      []Video   `json:"videos"`
	TotalVideos int       `json:"totalVideos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ToPlaylist(p *model.Playlist) *Playlist {
	if p == nil {
		return nil
	}
	videos := p.Videos
	if videos == nil {
		videos = []uuid.UUID{}
	}
	return &Playlist{
		ID:          p.ID,
		Owner:       p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		Videos:      videos,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToPlaylistContents(c model.PlaylistContents) PlaylistContents {
	items := ToVideos(c.Items)
	return PlaylistContents{
		ID:          c.ID,
		Owner:       c.OwnerID,
		Name:        c.Name,
		Description: c.Description,
		Videos:      items,
		TotalVideos: len(items),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func ToPlaylistContentsList(cs []model.PlaylistContents) []PlaylistContents {
	out := make([]PlaylistContents, 0, len(cs))
	for _, c := range cs {
		out = append(out, ToPlaylistContents(c))
	}
	return out
}
