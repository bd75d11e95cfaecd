package httpserver

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
)

// limitBody caps the request body before any multipart parsing.
func (s *Server) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
}

// saveUpload spools the named multipart file to the upload dir.
// It returns "" when the field is absent. The caller removes the file with discard.
func (s *Server) saveUpload(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", errs.Validation("upload exceeds %d bytes", tooBig.Limit)
		}
		return "", errs.Validation("invalid multipart form")
	}
	f, err := os.CreateTemp(s.opts.UploadDir, "upload-*"+strings.ToLower(filepath.Ext(fh.Filename)))
	if err != nil {
		return "", err
	}
	path := f.Name()
	_ = f.Close()
	if err := c.SaveUploadedFile(fh, path); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// discard removes spooled uploads that storage did not consume.
func (s *Server) discard(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("remove upload", zap.String("path", p), zap.Error(err))
		}
	}
}

func (s *Server) setSession(c *gin.Context, p model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie, p.AccessToken, maxAge(p.AccessExpiresAt, s.opts.AccessTTL), "/", s.opts.CookieDomain, s.opts.CookieSecure, true)
	c.SetCookie(refreshCookie, p.RefreshToken, maxAge(p.RefreshExpiresAt, s.opts.RefreshTTL), "/", s.opts.CookieDomain, s.opts.CookieSecure, true)
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie, "", -1, "/", s.opts.CookieDomain, s.opts.CookieSecure, true)
	c.SetCookie(refreshCookie, "", -1, "/", s.opts.CookieDomain, s.opts.CookieSecure, true)
}

func maxAge(exp time.Time, fallback time.Duration) int {
	if !exp.IsZero() {
		if d := time.Until(exp); d > 0 {
			return int(d / time.Second)
		}
	}
	return int(fallback / time.Second)
}
