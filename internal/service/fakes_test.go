package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/and161185/vidhub/internal/repository"
	"github.com/and161185/vidhub/internal/storage"
	"github.com/gofrs/uuid/v5"
)

// memStore backs all fake repositories. fail maps a method name to the error it returns.
type memStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*model.Identity
	videos    map[uuid.UUID]*model.Video
	videoSeq  []uuid.UUID
	comments  map[uuid.UUID]*model.Comment
	subs      []subEdge
	likes     []likeEdge
	playlists map[uuid.UUID]*model.Playlist
	plSeq     []uuid.UUID
	fail      map[string]error
}

type subEdge struct{ sub, ch uuid.UUID }

type likeEdge struct {
	actor, target uuid.UUID
	kind          model.TargetKind
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]*model.Identity{},
		videos:    map[uuid.UUID]*model.Video{},
		comments:  map[uuid.UUID]*model.Comment{},
		playlists: map[uuid.UUID]*model.Playlist{},
		fail:      map[string]error{},
	}
}

func (m *memStore) failure(op string) error { return m.fail[op] }

func (m *memStore) setFail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = err
}

func copyIDs(ids []uuid.UUID) []uuid.UUID { return append([]uuid.UUID(nil), ids...) }

func copyIdentity(u *model.Identity) *model.Identity {
	c := *u
	if u.RefreshToken != nil {
		tok := *u.RefreshToken
		c.RefreshToken = &tok
	}
	c.WatchHistory = copyIDs(u.WatchHistory)
	return &c
}

// --- users ---

type memUsers struct{ *memStore }

var _ repository.UserRepository = memUsers{}

func (m memUsers) Create(_ context.Context, u *model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("Create"); err != nil {
		return err
	}
	for _, cur := range m.users {
		if strings.EqualFold(cur.Username, u.Username) || strings.EqualFold(cur.Email, u.Email) {
			return errs.ErrAlreadyExists
		}
	}
	m.users[u.ID] = copyIdentity(u)
	return nil
}

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("GetByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return copyIdentity(u), nil
}

func (m memUsers) GetByUsername(_ context.Context, username string) (*model.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return copyIdentity(u), nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m memUsers) GetByLogin(_ context.Context, login string) (*model.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("GetByLogin"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			return copyIdentity(u), nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m memUsers) GetProfiles(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]model.Profile, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u.Profile()
		}
	}
	return out, nil
}

func (m memUsers) with(id uuid.UUID, op string, fn func(u *model.Identity) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(op); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	return fn(u)
}

func (m memUsers) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	return m.with(id, "SetRefreshToken", func(u *model.Identity) error {
		u.RefreshToken = &token
		return nil
	})
}

func (m memUsers) SwapRefreshToken(_ context.Context, id uuid.UUID, old, next string) error {
	return m.with(id, "SwapRefreshToken", func(u *model.Identity) error {
		if u.RefreshToken == nil || *u.RefreshToken != old {
			return errs.ErrVersionConflict
		}
		u.RefreshToken = &next
		return nil
	})
}

func (m memUsers) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	return m.with(id, "ClearRefreshToken", func(u *model.Identity) error {
		u.RefreshToken = nil
		return nil
	})
}

func (m memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return m.with(id, "UpdatePassword", func(u *model.Identity) error {
		u.PasswordHash = hash
		return nil
	})
}

func (m memUsers) UpdateAccount(_ context.Context, id uuid.UUID, fullName, email *string) (*model.Identity, error) {
	var out *model.Identity
	err := m.with(id, "UpdateAccount", func(u *model.Identity) error {
		if fullName != nil {
			u.FullName = *fullName
		}
		if email != nil {
			u.Email = *email
		}
		out = copyIdentity(u)
		return nil
	})
	return out, err
}

func (m memUsers) UpdateAvatar(_ context.Context, id uuid.UUID, url string) error {
	return m.with(id, "UpdateAvatar", func(u *model.Identity) error {
		u.Avatar = url
		return nil
	})
}

func (m memUsers) UpdateCoverImage(_ context.Context, id uuid.UUID, url string) error {
	return m.with(id, "UpdateCoverImage", func(u *model.Identity) error {
		u.CoverImage = url
		return nil
	})
}

func (m memUsers) PushWatchHistory(_ context.Context, id, videoID uuid.UUID) error {
	return m.with(id, "PushWatchHistory", func(u *model.Identity) error {
		h := make([]uuid.UUID, 0, len(u.WatchHistory)+1)
		for _, v := range u.WatchHistory {
			if v != videoID {
				h = append(h, v)
			}
		}
		u.WatchHistory = append(h, videoID)
		return nil
	})
}

// --- videos ---

type memVideos struct{ *memStore }

var _ repository.VideoRepository = memVideos{}

func (m memVideos) Create(_ context.Context, v *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("CreateVideo"); err != nil {
		return err
	}
	c := *v
	m.videos[v.ID] = &c
	m.videoSeq = append(m.videoSeq, v.ID)
	return nil
}

func (m memVideos) GetByID(_ context.Context, id uuid.UUID) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (m memVideos) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("GetByIDs"); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]model.Video, len(ids))
	for _, id := range ids {
		if v, ok := m.videos[id]; ok {
			out[id] = *v
		}
	}
	return out, nil
}

func (m memVideos) List(_ context.Context, q model.VideoQuery) ([]model.Video, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Video
	for _, id := range m.videoSeq {
		v, ok := m.videos[id]
		if !ok || (!v.IsPublished && v.OwnerID != q.ViewerID) {
			continue
		}
		if q.OwnerID != uuid.Nil && v.OwnerID != q.OwnerID {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(v.Title+" "+v.Description), strings.ToLower(q.Search)) {
			continue
		}
		all = append(all, *v)
	}
	if q.SortBy == "title" {
		sort.SliceStable(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	}
	total := int64(len(all))
	from := (q.Page - 1) * q.Limit
	if from > len(all) {
		from = len(all)
	}
	to := from + q.Limit
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], total, nil
}

func (m memVideos) Update(_ context.Context, v *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("UpdateVideo"); err != nil {
		return err
	}
	cur, ok := m.videos[v.ID]
	if !ok {
		return errs.ErrNotFound
	}
	cur.Title, cur.Description, cur.Thumbnail = v.Title, v.Description, v.Thumbnail
	return nil
}

func (m memVideos) TogglePublished(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return false, errs.ErrNotFound
	}
	v.IsPublished = !v.IsPublished
	return v.IsPublished, nil
}

func (m memVideos) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.videos, id)
	return nil
}

func (m memVideos) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.videos[id]
	return ok, nil
}

func (m memVideos) IsPublished(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return false, errs.ErrNotFound
	}
	return v.IsPublished, nil
}

// --- comments ---

type memComments struct{ *memStore }

var _ repository.CommentRepository = memComments{}

func (m memComments) Create(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[c.VideoID]; !ok {
		return errs.ErrNotFound
	}
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m memComments) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.comments[id]
	return ok, nil
}

func (m memComments) ListByVideo(_ context.Context, videoID uuid.UUID) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Comment
	for _, c := range m.comments {
		if c.VideoID == videoID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// --- edges ---

type memEdges struct{ *memStore }

var _ repository.RelationRepository = memEdges{}

func (m memEdges) ToggleSubscription(_ context.Context, sub, ch uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.subs {
		if e.sub == sub && e.ch == ch {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return false, nil
		}
	}
	m.subs = append(m.subs, subEdge{sub: sub, ch: ch})
	return true, nil
}

func (m memEdges) IsSubscribed(_ context.Context, sub, ch uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.subs {
		if e.sub == sub && e.ch == ch {
			return true, nil
		}
	}
	return false, nil
}

func (m memEdges) CountSubscribers(ctx context.Context, ch uuid.UUID) (int64, error) {
	ids, err := m.ListSubscribers(ctx, ch)
	return int64(len(ids)), err
}

func (m memEdges) CountSubscribedTo(ctx context.Context, sub uuid.UUID) (int64, error) {
	ids, err := m.ListSubscribedChannels(ctx, sub)
	return int64(len(ids)), err
}

func (m memEdges) ListSubscribers(_ context.Context, ch uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for _, e := range m.subs {
		if e.ch == ch {
			out = append(out, e.sub)
		}
	}
	return out, nil
}

func (m memEdges) ListSubscribedChannels(_ context.Context, sub uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for _, e := range m.subs {
		if e.sub == sub {
			out = append(out, e.ch)
		}
	}
	return out, nil
}

func (m memEdges) ToggleLike(_ context.Context, actor, target uuid.UUID, kind model.TargetKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.likes {
		if e.actor == actor && e.target == target && e.kind == kind {
			m.likes = append(m.likes[:i], m.likes[i+1:]...)
			return false, nil
		}
	}
	m.likes = append(m.likes, likeEdge{actor: actor, target: target, kind: kind})
	return true, nil
}

func (m memEdges) ListLiked(_ context.Context, actor uuid.UUID, kind model.TargetKind) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for _, e := range m.likes {
		if e.actor == actor && e.kind == kind {
			out = append(out, e.target)
		}
	}
	return out, nil
}

// --- playlists ---

type memPlaylists struct{ *memStore }

var _ repository.PlaylistRepository = memPlaylists{}

func copyPlaylist(p *model.Playlist) *model.Playlist {
	c := *p
	c.Videos = copyIDs(p.Videos)
	return &c
}

func (m memPlaylists) Create(_ context.Context, p *model.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlists[p.ID] = copyPlaylist(p)
	m.plSeq = append(m.plSeq, p.ID)
	return nil
}

func (m memPlaylists) GetByID(_ context.Context, id uuid.UUID) (*model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playlists[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return copyPlaylist(p), nil
}

func (m memPlaylists) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Playlist
	for _, id := range m.plSeq {
		if p, ok := m.playlists[id]; ok && p.OwnerID == ownerID {
			out = append(out, *copyPlaylist(p))
		}
	}
	return out, nil
}

func (m memPlaylists) Update(_ context.Context, id uuid.UUID, name, description *string) (*model.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playlists[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = *description
	}
	return copyPlaylist(p), nil
}

func (m memPlaylists) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.playlists[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.playlists, id)
	return nil
}

func (m memPlaylists) AddVideo(_ context.Context, id, videoID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playlists[id]
	if !ok {
		return errs.ErrNotFound
	}
	if p.Contains(videoID) {
		return errs.ErrAlreadyExists
	}
	p.Videos = append(p.Videos, videoID)
	return nil
}

func (m memPlaylists) RemoveVideo(_ context.Context, id, videoID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playlists[id]
	if !ok || !p.Contains(videoID) {
		return errs.ErrNotFound
	}
	out := p.Videos[:0]
	for _, v := range p.Videos {
		if v != videoID {
			out = append(out, v)
		}
	}
	p.Videos = out
	return nil
}

// --- files ---

type fakeFiles struct {
	mu       sync.Mutex
	n        int
	storeErr map[string]error // by local path
	deleted  []string
	stored   []string
}

var _ storage.FileStorage = (*fakeFiles)(nil)

func (f *fakeFiles) Store(_ context.Context, localPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.storeErr[localPath]; err != nil {
		return "", err
	}
	f.n++
	url := fmt.Sprintf("https://cdn.test/media/f%d%s", f.n, filepath.Ext(localPath))
	f.stored = append(f.stored, url)
	return url, nil
}

func (f *fakeFiles) Delete(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return nil
}

func (f *fakeFiles) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// --- helpers ---

func (m *memStore) addUser(username string) *model.Identity {
	id := uuid.Must(uuid.NewV4())
	u := &model.Identity{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		FullName: strings.ToUpper(username[:1]) + username[1:],
		Avatar:   "https://cdn.test/media/" + username + ".png",
	}
	m.mu.Lock()
	m.users[id] = u
	m.mu.Unlock()
	return copyIdentity(u)
}

func (m *memStore) removeUser(id uuid.UUID) {
	m.mu.Lock()
	delete(m.users, id)
	m.mu.Unlock()
}

func (m *memStore) addVideo(owner uuid.UUID, title string, published bool) model.Video {
	v := model.Video{
		ID:          uuid.Must(uuid.NewV4()),
		OwnerID:     owner,
		Title:       title,
		Description: title + " description",
		VideoFile:   "https://cdn.test/media/" + title + ".mp4",
		Thumbnail:   "https://cdn.test/media/" + title + ".jpg",
		IsPublished: published,
	}
	m.mu.Lock()
	m.videos[v.ID] = &v
	m.videoSeq = append(m.videoSeq, v.ID)
	m.mu.Unlock()
	return v
}

func (m *memStore) removeVideo(id uuid.UUID) {
	m.mu.Lock()
	delete(m.videos, id)
	m.mu.Unlock()
}

func (m *memStore) user(id uuid.UUID) *model.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return copyIdentity(u)
	}
	return nil
}
