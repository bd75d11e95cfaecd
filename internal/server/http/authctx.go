package httpserver

import (
	"context"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

type ctxKey string

const (
	userIDKey ctxKey = "vh.userID"
	claimsKey ctxKey = "vh.claims"
)

// WithUserID stores authenticated identity ID in context.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx fetches identity ID from context.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// WithClaims stores verified access token claims in context.
func WithClaims(ctx context.Context, c model.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromCtx fetches access token claims from context.
func ClaimsFromCtx(ctx context.Context) (model.AccessClaims, bool) {
	c, ok := ctx.Value(claimsKey).(model.AccessClaims)
	return c, ok
}
