package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func withTmpConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "vidhub")
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return tok
}

func writeEnvelope(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status, "success": status < 400, "message": msg, "data": data,
	})
}

func Test_cfgDir_And_Paths(t *testing.T) {
	base := withTmpConfig(t)
	if got := cfgDir(); got != base {
		t.Fatalf("cfgDir=%q, want %q", got, base)
	}
	if !strings.HasPrefix(tokenPath(), base) || !strings.HasSuffix(tokenPath(), "token.json") {
		t.Fatalf("tokenPath unexpected: %s", tokenPath())
	}
}

func Test_session_SaveLoadClear(t *testing.T) {
	_ = withTmpConfig(t)

	if _, err := loadSession(); !errors.Is(err, errLoginRequired) {
		t.Fatalf("want errLoginRequired when file missing, got %v", err)
	}
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	access := signed(t, exp)
	if err := saveSession(access, "r1"); err != nil {
		t.Fatalf("saveSession: %v", err)
	}
	st, err := os.Stat(tokenPath())
	if err != nil || st.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode: %v %v", st, err)
	}
	tf, err := loadSession()
	if err != nil || tf.AccessToken != access || tf.RefreshToken != "r1" {
		t.Fatalf("loadSession: %+v %v", tf, err)
	}
	if !tf.ExpiresAt.Equal(exp) {
		t.Fatalf("expiry from jwt: %v, want %v", tf.ExpiresAt, exp)
	}
	if !tf.accessValid(time.Now()) || tf.accessValid(exp.Add(time.Second)) {
		t.Fatalf("accessValid window wrong")
	}
	if err := clearSession(); err != nil {
		t.Fatalf("clearSession: %v", err)
	}
	if err := clearSession(); err != nil {
		t.Fatalf("clearSession twice: %v", err)
	}
}

func Test_tokenExpiry_Fallback(t *testing.T) {
	t.Parallel()
	got := tokenExpiry("not-a-jwt")
	if d := time.Until(got); d < 14*time.Minute || d > 16*time.Minute {
		t.Fatalf("fallback expiry = %v", d)
	}
}

func Test_listQuery(t *testing.T) {
	t.Parallel()
	if q := listQuery("", "", 0, 0); q != "" {
		t.Fatalf("empty query: %q", q)
	}
	if q := listQuery("cats", "o1", 2, 5); q != "?limit=5&ownerId=o1&page=2&query=cats" {
		t.Fatalf("query: %q", q)
	}
}

func Test_client_ErrorsAndBearer(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/current-user":
			if r.Header.Get("Authorization") != "Bearer T" {
				writeEnvelope(w, http.StatusUnauthorized, "unauthorized request", nil)
				return
			}
			writeEnvelope(w, http.StatusOK, "ok", map[string]string{"username": "alice"})
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>"))
		}
	}))
	t.Cleanup(srv.Close)

	var me struct{ Username string }
	if err := newClient(srv.URL, "T").call(context.Background(), http.MethodGet, "/users/current-user", nil, &me); err != nil || me.Username != "alice" {
		t.Fatalf("call: %+v %v", me, err)
	}

	var apiErr *apiError
	err := newClient(srv.URL, "").call(context.Background(), http.MethodGet, "/users/current-user", nil, nil)
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "unauthorized request" {
		t.Fatalf("want 401 apiError, got %v", err)
	}
	err = newClient(srv.URL, "T").call(context.Background(), http.MethodGet, "/other", nil, nil)
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("want malformed 502, got %v", err)
	}
}

func Test_authed_RotatesExpiredAccess(t *testing.T) {
	_ = withTmpConfig(t)

	fresh := signed(t, time.Now().Add(15*time.Minute))
	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "r1" {
			writeEnvelope(w, http.StatusUnauthorized, "refresh token is expired or used", nil)
			return
		}
		refreshes.Add(1)
		writeEnvelope(w, http.StatusOK, "access token refreshed", map[string]string{"accessToken": fresh, "refreshToken": "r2"})
	}))
	t.Cleanup(srv.Close)

	if err := saveSession(signed(t, time.Now().Add(-time.Minute)), "r1"); err != nil {
		t.Fatalf("saveSession: %v", err)
	}
	c, err := authed(context.Background(), srv.URL)
	if err != nil || c.token != fresh {
		t.Fatalf("authed: %v", err)
	}
	if refreshes.Load() != 1 {
		t.Fatalf("want one refresh, got %d", refreshes.Load())
	}
	tf, _ := loadSession()
	if tf.RefreshToken != "r2" {
		t.Fatalf("rotated refresh not saved: %+v", tf)
	}

	// valid access token is used as is
	if _, err := authed(context.Background(), srv.URL); err != nil || refreshes.Load() != 1 {
		t.Fatalf("second authed: %v refreshes=%d", err, refreshes.Load())
	}

	// a stale refresh token drops the local session
	if err := saveSession(signed(t, time.Now().Add(-time.Minute)), "r0"); err != nil {
		t.Fatalf("saveSession: %v", err)
	}
	if _, err := authed(context.Background(), srv.URL); !errors.Is(err, errLoginRequired) {
		t.Fatalf("want errLoginRequired, got %v", err)
	}
	if _, err := os.Stat(tokenPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("session file must be removed: %v", err)
	}
}

func Test_upload_SendsMultipart(t *testing.T) {
	t.Parallel()
	img := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(img, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeEnvelope(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		f, h, err := r.FormFile("avatar")
		if err != nil || h.Filename != "me.png" {
			writeEnvelope(w, http.StatusBadRequest, "avatar missing", nil)
			return
		}
		_ = f.Close()
		if _, _, err := r.FormFile("coverImage"); err == nil {
			writeEnvelope(w, http.StatusBadRequest, "empty cover must be skipped", nil)
			return
		}
		writeEnvelope(w, http.StatusCreated, "user registered successfully", map[string]string{"username": r.FormValue("username")})
	}))
	t.Cleanup(srv.Close)

	var out struct{ Username string }
	err := newClient(srv.URL, "").upload(context.Background(), http.MethodPost, "/users/register",
		map[string]string{"username": "alice"},
		map[string]string{"avatar": img, "coverImage": ""},
		&out)
	if err != nil || out.Username != "alice" {
		t.Fatalf("upload: %+v %v", out, err)
	}
}
