package postgres

import (
	"context"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// PlaylistRepo implements PlaylistRepository using PostgreSQL.
type PlaylistRepo struct{ db *DB }

// NewPlaylistRepo constructs a playlist repository.
func NewPlaylistRepo(db *DB) *PlaylistRepo { return &PlaylistRepo{db: db} }

const playlistColumns = `id, owner_id, name, description, videos, created_at, updated_at`

func scanPlaylist(row pgx.Row) (*model.Playlist, error) {
	var p model.Playlist
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Videos, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts an empty playlist.
func (r *PlaylistRepo) Create(ctx context.Context, p *model.Playlist) error {
	const q = `INSERT INTO playlists (id, owner_id, name, description) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.Pool.Exec(ctx, q, p.ID, p.OwnerID, p.Name, p.Description); err != nil {
		return errs.Persistence("create playlist", err)
	}
	return nil
}

// GetByID selects a playlist by ID.
func (r *PlaylistRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Playlist, error) {
	q := `SELECT ` + playlistColumns + ` FROM playlists WHERE id=$1`
	p, err := scanPlaylist(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, rowErr("get playlist", err)
	}
	return p, nil
}

// ListByOwner selects the owner's playlists oldest first.
func (r *PlaylistRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Playlist, error) {
	q := `SELECT ` + playlistColumns + ` FROM playlists WHERE owner_id=$1 ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, errs.Persistence("list playlists", err)
	}
	defer rows.Close()
	var out []model.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, errs.Persistence("list playlists", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("list playlists", err)
	}
	return out, nil
}

// Update changes name and/or description; nil keeps the current value.
func (r *PlaylistRepo) Update(ctx context.Context, id uuid.UUID, name, description *string) (*model.Playlist, error) {
	q := `
UPDATE playlists
SET name = COALESCE($2::text, name),
    description = COALESCE($3::text, description),
    updated_at = now()
WHERE id = $1
RETURNING ` + playlistColumns
	p, err := scanPlaylist(r.db.Pool.QueryRow(ctx, q, id, name, description))
	if err != nil {
		return nil, rowErr("update playlist", err)
	}
	return p, nil
}

// Delete removes the playlist.
func (r *PlaylistRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM playlists WHERE id=$1`, id)
	return execErr("delete playlist", tag, err)
}

// AddVideo appends videoID unless it is already a member; the check and the append are one statement.
func (r *PlaylistRepo) AddVideo(ctx context.Context, id, videoID uuid.UUID) error {
	const q = `
UPDATE playlists
SET videos = array_append(videos, $2::uuid), updated_at = now()
WHERE id = $1 AND NOT ($2::uuid = ANY(videos))`
	tag, err := r.db.Pool.Exec(ctx, q, id, videoID)
	if err != nil {
		return errs.Persistence("add playlist video", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrAlreadyExists
	}
	return nil
}

// RemoveVideo drops videoID when it is a member.
func (r *PlaylistRepo) RemoveVideo(ctx context.Context, id, videoID uuid.UUID) error {
	const q = `
UPDATE playlists
SET videos = array_remove(videos, $2::uuid), updated_at = now()
WHERE id = $1 AND $2::uuid = ANY(videos)`
	tag, err := r.db.Pool.Exec(ctx, q, id, videoID)
	return execErr("remove playlist video", tag, err)
}
