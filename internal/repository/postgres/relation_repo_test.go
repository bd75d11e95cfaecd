package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestRelationRepo_ToggleSubscription(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRelationRepo(db)
	ctx := context.Background()
	sub, ch := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	// absent -> insert
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions WHERE subscriber_id=$1 AND channel_id=$2`)).
		WithArgs(sub, ch).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (subscriber_id, channel_id) DO NOTHING`)).
		WithArgs(sub, ch).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	on, err := r.ToggleSubscription(ctx, sub, ch)
	require.NoError(t, err)
	require.True(t, on)

	// present -> delete only
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions`)).
		WithArgs(sub, ch).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	on, err = r.ToggleSubscription(ctx, sub, ch)
	require.NoError(t, err)
	require.False(t, on)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions`)).
		WithArgs(sub, ch).
		WillReturnError(errors.New("boom"))
	_, err = r.ToggleSubscription(ctx, sub, ch)
	require.ErrorIs(t, err, errs.ErrPersistence)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationRepo_ToggleLosesInsertRace(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRelationRepo(db)
	ctx := context.Background()
	a, b := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	// a concurrent toggle inserted the edge between our DELETE and INSERT
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions`)).
		WithArgs(a, b).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (subscriber_id, channel_id) DO NOTHING`)).
		WithArgs(a, b).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	on, err := r.ToggleSubscription(ctx, a, b)
	require.NoError(t, err)
	require.True(t, on)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM likes`)).
		WithArgs(a, b, string(model.TargetVideo)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (actor_id, target_id, target_kind) DO NOTHING`)).
		WithArgs(a, b, string(model.TargetVideo)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	on, err = r.ToggleLike(ctx, a, b, model.TargetVideo)
	require.NoError(t, err)
	require.True(t, on)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationRepo_CountsAndLists(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRelationRepo(db)
	ctx := context.Background()
	ch := uuid.Must(uuid.NewV4())
	a, b := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM subscriptions WHERE channel_id=$1`)).
		WithArgs(ch).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	n, err := r.CountSubscribers(ctx, ch)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM subscriptions WHERE subscriber_id=$1`)).
		WithArgs(ch).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	n, err = r.CountSubscribedTo(ctx, ch)
	require.NoError(t, err)
	require.Zero(t, n)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM subscriptions`)).
		WithArgs(a, ch).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := r.IsSubscribed(ctx, a, ch)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT subscriber_id FROM subscriptions WHERE channel_id=$1 ORDER BY seq`)).
		WithArgs(ch).
		WillReturnRows(pgxmock.NewRows([]string{"subscriber_id"}).AddRow(b).AddRow(a))
	ids, err := r.ListSubscribers(ctx, ch)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{b, a}, ids)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT channel_id FROM subscriptions WHERE subscriber_id=$1 ORDER BY seq`)).
		WithArgs(a).
		WillReturnError(errors.New("boom"))
	_, err = r.ListSubscribedChannels(ctx, a)
	require.ErrorIs(t, err, errs.ErrPersistence)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationRepo_Likes(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRelationRepo(db)
	ctx := context.Background()
	actor, target := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM likes WHERE actor_id=$1 AND target_id=$2 AND target_kind=$3`)).
		WithArgs(actor, target, "comment").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO likes (actor_id, target_id, target_kind)`)).
		WithArgs(actor, target, "comment").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	on, err := r.ToggleLike(ctx, actor, target, model.TargetComment)
	require.NoError(t, err)
	require.True(t, on)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM likes`)).
		WithArgs(actor, target, "comment").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	on, err = r.ToggleLike(ctx, actor, target, model.TargetComment)
	require.NoError(t, err)
	require.False(t, on)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT target_id FROM likes WHERE actor_id=$1 AND target_kind=$2 ORDER BY seq`)).
		WithArgs(actor, "video").
		WillReturnRows(pgxmock.NewRows([]string{"target_id"}).AddRow(target))
	ids, err := r.ListLiked(ctx, actor, model.TargetVideo)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{target}, ids)

	require.NoError(t, mock.ExpectationsWereMet())
}
