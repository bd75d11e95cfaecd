// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Identity is an account stored on the server. PasswordHash is an encoded argon2id string.
type Identity struct {
	ID           uuid.UUID
	Username     string // unique, lowercase
	Email        string // unique, lowercase
	FullName     string
	Avatar       string
	CoverImage   string
	PasswordHash string
	RefreshToken *string     // nil when logged out or never logged in
	WatchHistory []uuid.UUID // most-recent-last, no duplicates
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile returns the public projection of an identity.
func (i Identity) Profile() Profile {
	return Profile{ID: i.ID, Username: i.Username, FullName: i.FullName, Avatar: i.Avatar}
}

// Profile is the public part of an identity used in composed views.
type Profile struct {
	ID       uuid.UUID
	Username string
	FullName string
	Avatar   string
}

// TokenPair collects issued access/refresh tokens.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessClaims is what a verified access token says about its bearer.
type AccessClaims struct {
	IdentityID uuid.UUID
	Username   string
	Email      string
	FullName   string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// Video is a published (or draft) content record.
type Video struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	VideoFile   string
	Thumbnail   string
	Duration    float64 // seconds
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Comment is a text comment on a video.
type Comment struct {
	ID        uuid.UUID
	VideoID   uuid.UUID
	OwnerID   uuid.UUID
	Content   string
	CreatedAt time.Time
}

// TargetKind says what a like edge points at.
type TargetKind string

// Like target kinds.
const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
)

// Playlist is an ordered, duplicate-free list of videos owned by one identity.
type Playlist struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Description string
	Videos      []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contains reports whether the playlist already holds the video.
func (p Playlist) Contains(videoID uuid.UUID) bool {
	for _, id := range p.Videos {
		if id == videoID {
			return true
		}
	}
	return false
}

// VideoQuery filters and paginates the video listing.
type VideoQuery struct {
	Page     int
	Limit    int
	OwnerID  uuid.UUID // uuid.Nil for any owner
	Search   string    // matched against title and description
	SortBy   string    // created_at | title | duration
	SortDesc bool
	// ViewerID sees their own drafts in addition to published videos.
	ViewerID uuid.UUID
}

// VideoPage is one page of the video listing.
type VideoPage struct {
	Videos []Video
	Page   int
	Limit  int
	Total  int64
}

// --- composed views ---

// ChannelProfile is the channel page of an identity as seen by a viewer.
type ChannelProfile struct {
	Profile
	Email             string
	CoverImage        string
	SubscriberCount   int64
	SubscribedToCount int64
	IsSubscribed      bool
}

// ProfileList is a list of profiles plus the cardinality of the underlying edge set.
// Total may exceed len(Profiles) when edges reference deleted identities.
type ProfileList struct {
	Profiles []Profile
	Total    int64
}

// HistoryEntry is a watched video with its owner's public profile.
type HistoryEntry struct {
	Video
	Owner Profile
}

// PlaylistContents is a playlist with its member videos resolved.
type PlaylistContents struct {
	Playlist
	Items []Video
}
