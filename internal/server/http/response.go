package httpserver

import (
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/errs"
)

// Envelope wraps every response body.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{StatusCode: status, Success: status < http.StatusBadRequest, Message: message, Data: data})
}

func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{StatusCode: status, Success: false, Message: message})
}

// statusFor maps a service error to an HTTP status and a caller-facing message.
// Validation messages pass through; everything else gets a fixed text.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrPersistence):
		return http.StatusInternalServerError, "internal server error"
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusBadRequest, "already exists"
	case errors.Is(err, errs.ErrVersionConflict):
		return http.StatusBadRequest, "conflict"
	case errors.Is(err, errs.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, errs.ErrTokenStale):
		return http.StatusUnauthorized, "refresh token is expired or used"
	case errors.Is(err, errs.ErrTokenInvalid):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// validationMessage finds the innermost validation error so wrapping context stays hidden.
func validationMessage(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if errors.Unwrap(e) == errs.ErrValidation {
			return e.Error()
		}
	}
	return err.Error()
}

func (s *Server) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
	}
	abortWith(c, status, msg)
}

// bindError turns a failed `binding:"required"` check into "<field> is required".
// Malformed bodies get the fallback text.
func bindError(err error, fallback string) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 && ve[0].Tag() == "required" {
		return errs.Validation("%s is required", lowerFirst(ve[0].Field()))
	}
	return errs.Validation("%s", fallback)
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}
