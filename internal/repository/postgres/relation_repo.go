package postgres

import (
	"context"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// RelationRepo implements RelationRepository using PostgreSQL.
//
// Toggles delete first and insert only when nothing was deleted. The primary key on
// each edge plus ON CONFLICT DO NOTHING keeps racing toggles from producing duplicates.
type RelationRepo struct{ db *DB }

// NewRelationRepo constructs a relation repository.
func NewRelationRepo(db *DB) *RelationRepo { return &RelationRepo{db: db} }

// ToggleSubscription flips the (subscriber, channel) edge.
func (r *RelationRepo) ToggleSubscription(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	const del = `DELETE FROM subscriptions WHERE subscriber_id=$1 AND channel_id=$2`
	tag, err := r.db.Pool.Exec(ctx, del, subscriberID, channelID)
	if err != nil {
		return false, errs.Persistence("unsubscribe", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	const ins = `
INSERT INTO subscriptions (subscriber_id, channel_id)
VALUES ($1, $2)
ON CONFLICT (subscriber_id, channel_id) DO NOTHING`
	if _, err := r.db.Pool.Exec(ctx, ins, subscriberID, channelID); err != nil {
		return false, errs.Persistence("subscribe", err)
	}
	return true, nil
}

// IsSubscribed reports whether the edge exists.
func (r *RelationRepo) IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id=$1 AND channel_id=$2)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, subscriberID, channelID).Scan(&ok); err != nil {
		return false, errs.Persistence("is subscribed", err)
	}
	return ok, nil
}

// CountSubscribers counts edges pointing at channelID.
func (r *RelationRepo) CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error) {
	const q = `SELECT count(*) FROM subscriptions WHERE channel_id=$1`
	return r.count(ctx, "count subscribers", q, channelID)
}

// CountSubscribedTo counts edges starting at subscriberID.
func (r *RelationRepo) CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error) {
	const q = `SELECT count(*) FROM subscriptions WHERE subscriber_id=$1`
	return r.count(ctx, "count subscribed", q, subscriberID)
}

func (r *RelationRepo) count(ctx context.Context, op, q string, id uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&n); err != nil {
		return 0, errs.Persistence(op, err)
	}
	return n, nil
}

// ListSubscribers returns subscriber ids of channelID in subscription order.
func (r *RelationRepo) ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT subscriber_id FROM subscriptions WHERE channel_id=$1 ORDER BY seq`
	rows, err := r.db.Pool.Query(ctx, q, channelID)
	if err != nil {
		return nil, errs.Persistence("list subscribers", err)
	}
	return collectIDs(rows, "list subscribers")
}

// ListSubscribedChannels returns channel ids subscriberID follows in subscription order.
func (r *RelationRepo) ListSubscribedChannels(ctx context.Context, subscriberID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT channel_id FROM subscriptions WHERE subscriber_id=$1 ORDER BY seq`
	rows, err := r.db.Pool.Query(ctx, q, subscriberID)
	if err != nil {
		return nil, errs.Persistence("list subscribed channels", err)
	}
	return collectIDs(rows, "list subscribed channels")
}

// ToggleLike flips the (actor, target, kind) edge.
func (r *RelationRepo) ToggleLike(ctx context.Context, actorID, targetID uuid.UUID, kind model.TargetKind) (bool, error) {
	const del = `DELETE FROM likes WHERE actor_id=$1 AND target_id=$2 AND target_kind=$3`
	tag, err := r.db.Pool.Exec(ctx, del, actorID, targetID, string(kind))
	if err != nil {
		return false, errs.Persistence("unlike", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}
	const ins = `
INSERT INTO likes (actor_id, target_id, target_kind)
VALUES ($1, $2, $3)
ON CONFLICT (actor_id, target_id, target_kind) DO NOTHING`
	if _, err := r.db.Pool.Exec(ctx, ins, actorID, targetID, string(kind)); err != nil {
		return false, errs.Persistence("like", err)
	}
	return true, nil
}

// ListLiked returns liked target ids of kind in like order.
func (r *RelationRepo) ListLiked(ctx context.Context, actorID uuid.UUID, kind model.TargetKind) ([]uuid.UUID, error) {
	const q = `SELECT target_id FROM likes WHERE actor_id=$1 AND target_kind=$2 ORDER BY seq`
	rows, err := r.db.Pool.Query(ctx, q, actorID, string(kind))
	if err != nil {
		return nil, errs.Persistence("list liked", err)
	}
	return collectIDs(rows, "list liked")
}
