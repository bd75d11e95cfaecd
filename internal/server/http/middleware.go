package httpserver

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// AccessVerifier checks access tokens. service.TokenService satisfies it.
type AccessVerifier interface {
	VerifyAccess(token string) (model.AccessClaims, error)
}

// HitLimiter counts requests per key in a sliding window.
type HitLimiter interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error)
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestID reuses the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.Must(uuid.NewV4()).String()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// Logging writes one structured line per request. Bodies are never logged.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestID(c)),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("http", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("http", fields...)
		default:
			log.Info("http", fields...)
		}
	}
}

// Recover turns a handler panic into a 500 envelope.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("route", c.FullPath()),
				)
				abortWith(c, http.StatusInternalServerError, "internal server error")
			}
		}()
		c.Next()
	}
}

// Session requires a valid access token from the Authorization header or the access cookie.
// The identity id and claims are put on the request context.
func Session(tokens AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			abortWith(c, http.StatusUnauthorized, "unauthorized request")
			return
		}
		claims, err := tokens.VerifyAccess(tok)
		if err != nil {
			status, msg := statusFor(err)
			abortWith(c, status, msg)
			return
		}
		ctx := WithClaims(WithUserID(c.Request.Context(), claims.IdentityID), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if v, err := c.Cookie(accessCookie); err == nil {
		return v
	}
	return ""
}

// RateLimit refuses more than limit requests per client IP and route within window.
// Limiter errors let the request through.
func RateLimit(l HitLimiter, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	if l == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := c.FullPath() + "|" + c.ClientIP()
		ok, retry, err := l.Hit(c.Request.Context(), key, limit, window, time.Now())
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			secs := int(retry / time.Second)
			if retry%time.Second != 0 {
				secs++
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			abortWith(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
