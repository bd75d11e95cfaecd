package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// VideoRepo implements VideoRepository using PostgreSQL.
type VideoRepo struct{ db *DB }

// NewVideoRepo constructs a video repository.
func NewVideoRepo(db *DB) *VideoRepo { return &VideoRepo{db: db} }

const videoColumns = `id, owner_id, title, description, video_file, thumbnail, duration, is_published, created_at, updated_at`

// sortColumns whitelists ORDER BY targets.
var sortColumns = map[string]string{
	"":           "created_at",
	"created_at": "created_at",
	"title":      "title",
	"duration":   "duration",
}

func scanVideo(row pgx.Row) (*model.Video, error) {
	var v model.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail,
		&v.Duration, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a video row.
func (r *VideoRepo) Create(ctx context.Context, v *model.Video) error {
	const q = `
INSERT INTO videos (id, owner_id, title, description, video_file, thumbnail, duration, is_published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, q, v.ID, v.OwnerID, v.Title, v.Description, v.VideoFile, v.Thumbnail, v.Duration, v.IsPublished)
	if err != nil {
		return errs.Persistence("create video", err)
	}
	return nil
}

// GetByID selects a video by ID.
func (r *VideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	q := `SELECT ` + videoColumns + ` FROM videos WHERE id=$1`
	v, err := scanVideo(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, rowErr("get video", err)
	}
	return v, nil
}

// GetByIDs selects videos for ids in one round trip.
func (r *VideoRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Video, error) {
	out := make(map[uuid.UUID]model.Video, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT ` + videoColumns + ` FROM videos WHERE id = ANY($1)`
	rows, err := r.db.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, errs.Persistence("get videos", err)
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, errs.Persistence("get videos", err)
		}
		out[v.ID] = *v
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("get videos", err)
	}
	return out, nil
}

// List returns a filtered, sorted page. Drafts are visible only to their owner.
func (r *VideoRepo) List(ctx context.Context, vq model.VideoQuery) ([]model.Video, int64, error) {
	where := []string{"(is_published OR owner_id = $1)"}
	args := []any{vq.ViewerID}
	if vq.OwnerID != uuid.Nil {
		args = append(args, vq.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(vq.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, fmt.Sprintf(`(title ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM videos WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, errs.Persistence("count videos", err)
	}

	col, ok := sortColumns[vq.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if vq.SortDesc {
		dir = "DESC"
	}
	args = append(args, vq.Limit, (vq.Page-1)*vq.Limit)
	q := fmt.Sprintf(`SELECT %s FROM videos WHERE %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		videoColumns, cond, col, dir, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, errs.Persistence("list videos", err)
	}
	defer rows.Close()
	out := make([]model.Video, 0, vq.Limit)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, errs.Persistence("list videos", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Persistence("list videos", err)
	}
	return out, total, nil
}

// Update stores the editable fields.
func (r *VideoRepo) Update(ctx context.Context, v *model.Video) error {
	const q = `
UPDATE videos
SET title=$2, description=$3, thumbnail=$4, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, v.ID, v.Title, v.Description, v.Thumbnail)
	return execErr("update video", tag, err)
}

// TogglePublished flips is_published atomically.
func (r *VideoRepo) TogglePublished(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE videos SET is_published = NOT is_published, updated_at=now() WHERE id=$1 RETURNING is_published`
	var published bool
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&published); err != nil {
		return false, rowErr("toggle publish", err)
	}
	return published, nil
}

// Delete removes the video row. Comments cascade.
func (r *VideoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM videos WHERE id=$1`, id)
	return execErr("delete video", tag, err)
}

// Exists reports whether the video row exists.
func (r *VideoRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id=$1)`, id).Scan(&ok); err != nil {
		return false, errs.Persistence("video exists", err)
	}
	return ok, nil
}

// IsPublished reads the publish flag.
func (r *VideoRepo) IsPublished(ctx context.Context, id uuid.UUID) (bool, error) {
	var published bool
	if err := r.db.Pool.QueryRow(ctx, `SELECT is_published FROM videos WHERE id=$1`, id).Scan(&published); err != nil {
		return false, rowErr("video is published", err)
	}
	return published, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
