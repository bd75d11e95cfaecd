package postgres

import (
	"context"
	"strings"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, email, full_name, avatar, cover_image, password_hash, refresh_token, watch_history, created_at, updated_at`

func scanIdentity(row pgx.Row) (*model.Identity, error) {
	var u model.Identity
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage,
		&u.PasswordHash, &u.RefreshToken, &u.WatchHistory, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row. Username and email are stored lowercase.
func (r *UserRepo) Create(ctx context.Context, u *model.Identity) error {
	const q = `
INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, strings.ToLower(u.Username), strings.ToLower(u.Email),
		u.FullName, u.Avatar, u.CoverImage, u.PasswordHash)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return errs.Persistence("create user", err)
	}
	return nil
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	u, err := scanIdentity(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, rowErr("get user", err)
	}
	return u, nil
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.Identity, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(username)=lower($1)`
	u, err := scanIdentity(r.db.Pool.QueryRow(ctx, q, username))
	if err != nil {
		return nil, rowErr("get user by username", err)
	}
	return u, nil
}

// GetByLogin selects a user by username or email.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*model.Identity, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(username)=lower($1) OR lower(email)=lower($1)`
	u, err := scanIdentity(r.db.Pool.QueryRow(ctx, q, login))
	if err != nil {
		return nil, rowErr("get user by login", err)
	}
	return u, nil
}

// GetProfiles selects public profiles for the given ids in one round trip.
func (r *UserRepo) GetProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Profile, error) {
	out := make(map[uuid.UUID]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const q = `SELECT id, username, full_name, avatar FROM users WHERE id = ANY($1)`
	rows, err := r.db.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, errs.Persistence("get profiles", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.FullName, &p.Avatar); err != nil {
			return nil, errs.Persistence("get profiles", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("get profiles", err)
	}
	return out, nil
}

// SetRefreshToken overwrites refresh_token.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	const q = `UPDATE users SET refresh_token=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, token)
	return execErr("set refresh token", tag, err)
}

// SwapRefreshToken updates refresh_token only while it still equals old.
func (r *UserRepo) SwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error {
	const q = `
UPDATE users
SET refresh_token = $3, updated_at = now()
WHERE id = $1 AND refresh_token = $2`
	tag, err := r.db.Pool.Exec(ctx, q, id, old, next)
	if err != nil {
		return errs.Persistence("swap refresh token", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrVersionConflict
	}
	return nil
}

// ClearRefreshToken sets refresh_token to NULL.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE users SET refresh_token=NULL, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	return execErr("clear refresh token", tag, err)
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	const q = `UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, hash)
	return execErr("update password", tag, err)
}

// UpdateAccount changes full_name and/or email; nil keeps the current value.
func (r *UserRepo) UpdateAccount(ctx context.Context, id uuid.UUID, fullName, email *string) (*model.Identity, error) {
	q := `
UPDATE users
SET full_name = COALESCE($2::text, full_name),
    email = COALESCE(lower($3::text), email),
    updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	u, err := scanIdentity(r.db.Pool.QueryRow(ctx, q, id, fullName, email))
	if isUniqueViolation(err) {
		return nil, errs.ErrAlreadyExists
	}
	if err != nil {
		return nil, rowErr("update account", err)
	}
	return u, nil
}

// UpdateAvatar stores the avatar url.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error {
	const q = `UPDATE users SET avatar=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, url)
	return execErr("update avatar", tag, err)
}

// UpdateCoverImage stores the cover image url.
func (r *UserRepo) UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) error {
	const q = `UPDATE users SET cover_image=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, url)
	return execErr("update cover image", tag, err)
}

// PushWatchHistory removes videoID from watch_history and appends it in a single statement.
func (r *UserRepo) PushWatchHistory(ctx context.Context, id, videoID uuid.UUID) error {
	const q = `
UPDATE users
SET watch_history = array_append(array_remove(watch_history, $2::uuid), $2::uuid)
WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, q, id, videoID)
	return execErr("push watch history", tag, err)
}
