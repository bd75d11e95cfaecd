package postgres

import (
	"context"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CommentRepo implements CommentRepository using PostgreSQL.
type CommentRepo struct{ db *DB }

// NewCommentRepo constructs a comment repository.
func NewCommentRepo(db *DB) *CommentRepo { return &CommentRepo{db: db} }

// Create inserts a comment. A missing video yields errs.ErrNotFound.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	const q = `INSERT INTO comments (id, video_id, owner_id, content) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, c.ID, c.VideoID, c.OwnerID, c.Content)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	if err != nil {
		return errs.Persistence("create comment", err)
	}
	return nil
}

// Exists reports whether the comment row exists.
func (r *CommentRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM comments WHERE id=$1)`, id).Scan(&ok); err != nil {
		return false, errs.Persistence("comment exists", err)
	}
	return ok, nil
}

// ListByVideo returns comments on videoID oldest first.
func (r *CommentRepo) ListByVideo(ctx context.Context, videoID uuid.UUID) ([]model.Comment, error) {
	const q = `
SELECT id, video_id, owner_id, content, created_at
FROM comments WHERE video_id=$1
ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, q, videoID)
	if err != nil {
		return nil, errs.Persistence("list comments", err)
	}
	defer rows.Close()
	var out []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt); err != nil {
			return nil, errs.Persistence("list comments", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("list comments", err)
	}
	return out, nil
}
