package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ---- http client ----

// apiError is a non-2xx envelope returned by the server.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type apiClient struct {
	base  string
	http  *http.Client
	token string
}

func newClient(base, token string) *apiClient {
	return &apiClient{
		base:  strings.TrimRight(base, "/") + "/api/v1",
		http:  &http.Client{Timeout: 5 * time.Minute},
		token: token,
	}
}

// call sends a JSON body (nil for none) and decodes the envelope data into out (nil to skip).
func (c *apiClient) call(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// upload posts a multipart form with text fields and files keyed by form field.
func (c *apiClient) upload(ctx context.Context, method, path string, fields, files map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for field, p := range files {
		if p == "" {
			continue
		}
		if err := attach(mw, field, p); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, out)
}

func attach(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

func (c *apiClient) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &apiError{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return &apiError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// ---- typed calls ----

type session struct {
	User         json.RawMessage `json:"user,omitempty"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

func (c *apiClient) login(ctx context.Context, login, password string) (session, error) {
	var s session
	err := c.call(ctx, http.MethodPost, "/users/login", map[string]string{"login": login, "password": password}, &s)
	return s, err
}

func (c *apiClient) refresh(ctx context.Context, refreshToken string) (session, error) {
	var s session
	err := c.call(ctx, http.MethodPost, "/users/refresh-token", map[string]string{"refreshToken": refreshToken}, &s)
	return s, err
}

func listQuery(search, owner string, page, limit int) string {
	q := url.Values{}
	if search != "" {
		q.Set("query", search)
	}
	if owner != "" {
		q.Set("ownerId", owner)
	}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
