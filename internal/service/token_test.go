package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/golang-jwt/jwt/v5"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessKey:  []byte("access-secret"),
		RefreshKey: []byte("refresh-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Leeway:     5 * time.Second,
	}
}

func newTokens(t *testing.T) (*TokenServiceImpl, *memStore) {
	t.Helper()
	st := newMemStore()
	ts := NewTokenService(memUsers{st}, testTokenConfig())
	ts.now = func() time.Time { return t0 }
	return ts, st
}

func TestToken_IssueAndVerify(t *testing.T) {
	t.Parallel()
	ts, st := newTokens(t)
	u := st.addUser("alice")

	pair, err := ts.IssueTokenPair(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.AccessToken == pair.RefreshToken {
		t.Fatalf("bad pair: %+v", pair)
	}
	if !pair.AccessExpiresAt.Equal(t0.Add(15*time.Minute)) || !pair.RefreshExpiresAt.Equal(t0.Add(24*time.Hour)) {
		t.Fatalf("expiry = %v / %v", pair.AccessExpiresAt, pair.RefreshExpiresAt)
	}
	if got := st.user(u.ID).RefreshToken; got == nil || *got != pair.RefreshToken {
		t.Fatalf("stored refresh token = %v", got)
	}

	claims, err := ts.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.IdentityID != u.ID || claims.Username != "alice" || claims.Email != u.Email || claims.FullName != u.FullName {
		t.Fatalf("claims = %+v", claims)
	}
	if !claims.IssuedAt.Equal(t0) || !claims.ExpiresAt.Equal(pair.AccessExpiresAt) {
		t.Fatalf("claim times = %v / %v", claims.IssuedAt, claims.ExpiresAt)
	}
}

func TestToken_VerifyAccess_Rejects(t *testing.T) {
	t.Parallel()
	ts, st := newTokens(t)
	u := st.addUser("alice")
	pair, err := ts.IssueTokenPair(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	other := NewTokenService(memUsers{st}, TokenConfig{
		AccessKey: []byte("someone-else"), RefreshKey: []byte("x"), AccessTTL: time.Minute, RefreshTTL: time.Hour,
	})
	other.now = ts.now
	foreign, err := other.IssueTokenPair(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueTokenPair(other): %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: u.ID.String(), ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
	})
	noneStr, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	for name, tok := range map[string]string{
		"empty":       "",
		"garbage":     "not.a.jwt",
		"refresh":     pair.RefreshToken,
		"foreign key": foreign.AccessToken,
		"alg none":    noneStr,
	} {
		if _, err := ts.VerifyAccess(tok); !errors.Is(err, errs.ErrTokenInvalid) {
			t.Fatalf("%s: want ErrTokenInvalid, got %v", name, err)
		}
	}
}

func TestToken_VerifyAccess_Expiry(t *testing.T) {
	t.Parallel()
	ts, st := newTokens(t)
	u := st.addUser("alice")
	pair, err := ts.IssueTokenPair(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	// within leeway
	ts.now = func() time.Time { return t0.Add(15*time.Minute + 3*time.Second) }
	if _, err := ts.VerifyAccess(pair.AccessToken); err != nil {
		t.Fatalf("within leeway: %v", err)
	}

	ts.now = func() time.Time { return t0.Add(16 * time.Minute) }
	if _, err := ts.VerifyAccess(pair.AccessToken); !errors.Is(err, errs.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestToken_VerifyAccess_BadSubject(t *testing.T) {
	t.Parallel()
	ts, _ := newTokens(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Username: "ghost",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(t0.Add(time.Minute)),
		},
	})
	s, err := tok.SignedString(testTokenConfig().AccessKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ts.VerifyAccess(s); !errors.Is(err, errs.ErrTokenInvalid) {
		t.Fatalf("want ErrTokenInvalid, got %v", err)
	}
}

func TestToken_Rotate_SupersedesOldToken(t *testing.T) {
	t.Parallel()
	ts, st := newTokens(t)
	u := st.addUser("alice")
	ctx := context.Background()

	first, err := ts.IssueTokenPair(ctx, u)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	second, err := ts.Rotate(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("rotation must produce a new refresh token")
	}
	if got := st.user(u.ID).RefreshToken; got == nil || *got != second.RefreshToken {
		t.Fatalf("stored token not swapped")
	}
	if _, err := ts.Rotate(ctx, first.RefreshToken); !errors.Is(err, errs.ErrTokenStale) {
		t.Fatalf("reuse of superseded token: want ErrTokenStale, got %v", err)
	}
	if _, err := ts.Rotate(ctx, second.RefreshToken); err != nil {
		t.Fatalf("current token must still rotate: %v", err)
	}
}

func TestToken_IssueSupersedesPreviousRefresh(t *testing.T) {
	t.Parallel()
	ts, st := newTokens(t)
	u := st.addUser("alice")
	ctx := context.Background()

	first, err := ts.IssueTokenPair(ctx, u)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	if _, err := ts.IssueTokenPair(ctx, u); err != nil {
		t.Fatalf("IssueTokenPair(2): %v", err)
	}
	if _, err := ts.Rotate(ctx, first.RefreshToken); !errors.Is(err, errs.ErrTokenStale) {
		t.Fatalf("want ErrTokenStale, got %v", err)
	}
}

func TestToken_Rotate_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("revoked", func(t *testing.T) {
		t.Parallel()
		ts, st := newTokens(t)
		u := st.addUser("alice")
		pair, err := ts.IssueTokenPair(ctx, u)
		if err != nil {
			t.Fatalf("IssueTokenPair: %v", err)
		}
		if err := ts.Revoke(ctx, u.ID); err != nil {
			t.Fatalf("Revoke: %v", err)
		}
		if st.user(u.ID).RefreshToken != nil {
			t.Fatalf("refresh token not cleared")
		}
		if _, err := ts.Rotate(ctx, pair.RefreshToken); !errors.Is(err, errs.ErrTokenStale) {
			t.Fatalf("want ErrTokenStale, got %v", err)
		}
	})

	t.Run("unknown identity", func(t *testing.T) {
		t.Parallel()
		ts, st := newTokens(t)
		u := st.addUser("alice")
		pair, err := ts.IssueTokenPair(ctx, u)
		if err != nil {
			t.Fatalf("IssueTokenPair: %v", err)
		}
		st.removeUser(u.ID)
		if _, err := ts.Rotate(ctx, pair.RefreshToken); !errors.Is(err, errs.ErrTokenInvalid) {
			t.Fatalf("want ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		ts, st := newTokens(t)
		u := st.addUser("alice")
		pair, err := ts.IssueTokenPair(ctx, u)
		if err != nil {
			t.Fatalf("IssueTokenPair: %v", err)
		}
		ts.now = func() time.Time { return t0.Add(25 * time.Hour) }
		if _, err := ts.Rotate(ctx, pair.RefreshToken); !errors.Is(err, errs.ErrTokenExpired) {
			t.Fatalf("want ErrTokenExpired, got %v", err)
		}
	})

	t.Run("access token", func(t *testing.T) {
		t.Parallel()
		ts, st := newTokens(t)
		u := st.addUser("alice")
		pair, err := ts.IssueTokenPair(ctx, u)
		if err != nil {
			t.Fatalf("IssueTokenPair: %v", err)
		}
		if _, err := ts.Rotate(ctx, pair.AccessToken); !errors.Is(err, errs.ErrTokenInvalid) {
			t.Fatalf("want ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("persistence", func(t *testing.T) {
		t.Parallel()
		ts, st := newTokens(t)
		u := st.addUser("alice")
		pair, err := ts.IssueTokenPair(ctx, u)
		if err != nil {
			t.Fatalf("IssueTokenPair: %v", err)
		}
		st.setFail("SwapRefreshToken", errors.New("conn reset"))
		_, err = ts.Rotate(ctx, pair.RefreshToken)
		if !errors.Is(err, errs.ErrPersistence) || errors.Is(err, errs.ErrTokenStale) {
			t.Fatalf("want ErrPersistence, got %v", err)
		}
	})
}

func TestToken_Issue_PersistenceFailure(t *testing.T) {
	t.Parallel()
	ts, st := newTokens(t)
	u := st.addUser("alice")
	st.setFail("SetRefreshToken", errors.New("disk full"))

	pair, err := ts.IssueTokenPair(context.Background(), u)
	if !errors.Is(err, errs.ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	if pair.RefreshToken != "" {
		t.Fatalf("no token may be returned when it was not stored")
	}
}

func TestToken_ConcurrentRotate_SingleWinner(t *testing.T) {
	t.Parallel()
	ts, st := newTokens(t)
	u := st.addUser("alice")
	pair, err := ts.IssueTokenPair(context.Background(), u)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	const n = 16
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		stales int
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := ts.Rotate(context.Background(), pair.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, errs.ErrTokenStale):
				stales++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 || stales != n-1 {
		t.Fatalf("wins=%d stales=%d", wins, stales)
	}
}
