// Package input holds raw request payloads and their validation.
// Validate methods are pure: they never touch storage and return either
// a normalized value or an errs.ErrValidation carrying a caller-facing message.
package input

import (
	"math"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	maxNameLen     = 100
	maxTitleLen    = 200
	maxTextLen     = 5000

	defaultPageLimit = 10
	maxPageLimit     = 100

	// keeps (page-1)*limit inside a postgres int4 offset
	maxPage = math.MaxInt32 / maxPageLimit
)

var usernameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{2,29}$`)

// ParseID parses a path or query identifier.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errs.Validation("invalid %s", field)
	}
	return id, nil
}

func normalizeEmail(raw string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(raw))
	if e == "" {
		return "", errs.Validation("email is required")
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return "", errs.Validation("email is invalid")
	}
	return e, nil
}

func requireText(field, raw string, max int) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errs.Validation("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", errs.Validation("%s is too long", field)
	}
	return s, nil
}

func optionalText(field string, raw *string, max int) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := requireText(field, *raw, max)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func checkPassword(field, pw string) error {
	if pw == "" {
		return errs.Validation("%s is required", field)
	}
	if n := utf8.RuneCountInString(pw); n < minPasswordLen || n > maxPasswordLen {
		return errs.Validation("%s must be %d to %d characters", field, minPasswordLen, maxPasswordLen)
	}
	return nil
}

// Register is the sign-up form. Files are handled by the transport.
type Register struct {
	Username string `form:"username" json:"username" binding:"required"`
	Email    string `form:"email" json:"email" binding:"required"`
	FullName string `form:"fullName" json:"fullName" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// RegisterInput is a validated Register.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

// Validate lowercases username and email and checks every field.
func (r Register) Validate() (RegisterInput, error) {
	username := strings.ToLower(strings.TrimSpace(r.Username))
	if username == "" {
		return RegisterInput{}, errs.Validation("username is required")
	}
	if !usernameRe.MatchString(username) {
		return RegisterInput{}, errs.Validation("username must be 3-30 characters of letters, digits, '_', '.' or '-'")
	}
	email, err := normalizeEmail(r.Email)
	if err != nil {
		return RegisterInput{}, err
	}
	fullName, err := requireText("fullName", r.FullName, maxNameLen)
	if err != nil {
		return RegisterInput{}, err
	}
	if err := checkPassword("password", r.Password); err != nil {
		return RegisterInput{}, err
	}
	return RegisterInput{Username: username, Email: email, FullName: fullName, Password: r.Password}, nil
}

// Login accepts the identifier as login, username or email.
type Login struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// LoginInput is a validated Login.
type LoginInput struct {
	Login    string
	Password string
}

// Validate picks the first non-empty identifier.
func (l Login) Validate() (LoginInput, error) {
	login := ""
	for _, s := range []string{l.Login, l.Username, l.Email} {
		if s = strings.TrimSpace(s); s != "" {
			login = strings.ToLower(s)
			break
		}
	}
	if login == "" {
		return LoginInput{}, errs.Validation("username or email is required")
	}
	if l.Password == "" {
		return LoginInput{}, errs.Validation("password is required")
	}
	return LoginInput{Login: login, Password: l.Password}, nil
}

// ChangePassword is the password change payload.
type ChangePassword struct {
	OldPassword        string `json:"oldPassword" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// ChangePasswordInput is a validated ChangePassword.
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

func (c ChangePassword) Validate() (ChangePasswordInput, error) {
	if c.OldPassword == "" {
		return ChangePasswordInput{}, errs.Validation("oldPassword is required")
	}
	if err := checkPassword("newPassword", c.NewPassword); err != nil {
		return ChangePasswordInput{}, err
	}
	if c.NewPassword != c.ConfirmNewPassword {
		return ChangePasswordInput{}, errs.Validation("new password and confirmation do not match")
	}
	return ChangePasswordInput{OldPassword: c.OldPassword, NewPassword: c.NewPassword}, nil
}

// UpdateAccount changes profile fields; omitted fields stay as they are.
type UpdateAccount struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

// UpdateAccountInput is a validated UpdateAccount.
type UpdateAccountInput struct {
	FullName *string
	Email    *string
}

func (u UpdateAccount) Validate() (UpdateAccountInput, error) {
	if u.FullName == nil && u.Email == nil {
		return UpdateAccountInput{}, errs.Validation("fullName or email is required")
	}
	fullName, err := optionalText("fullName", u.FullName, maxNameLen)
	if err != nil {
		return UpdateAccountInput{}, err
	}
	var email *string
	if u.Email != nil {
		e, err := normalizeEmail(*u.Email)
		if err != nil {
			return UpdateAccountInput{}, err
		}
		email = &e
	}
	return UpdateAccountInput{FullName: fullName, Email: email}, nil
}

// PublishVideo is the multipart video upload form.
type PublishVideo struct {
	Title       string  `form:"title" binding:"required"`
	Description string  `form:"description" binding:"required"`
	Duration    float64 `form:"duration"`
}

// PublishVideoInput is a validated PublishVideo.
type PublishVideoInput struct {
	Title       string
	Description string
	Duration    float64
}

func (p PublishVideo) Validate() (PublishVideoInput, error) {
	title, err := requireText("title", p.Title, maxTitleLen)
	if err != nil {
		return PublishVideoInput{}, err
	}
	desc, err := requireText("description", p.Description, maxTextLen)
	if err != nil {
		return PublishVideoInput{}, err
	}
	if p.Duration < 0 {
		return PublishVideoInput{}, errs.Validation("duration must not be negative")
	}
	return PublishVideoInput{Title: title, Description: desc, Duration: p.Duration}, nil
}

// UpdateVideo changes video details; the thumbnail file is optional and handled by the transport.
type UpdateVideo struct {
	Title       *string `form:"title"`
	Description *string `form:"description"`
}

// UpdateVideoInput is a validated UpdateVideo.
type UpdateVideoInput struct {
	Title       *string
	Description *string
}

func (u UpdateVideo) Validate() (UpdateVideoInput, error) {
	title, err := optionalText("title", u.Title, maxTitleLen)
	if err != nil {
		return UpdateVideoInput{}, err
	}
	desc, err := optionalText("description", u.Description, maxTextLen)
	if err != nil {
		return UpdateVideoInput{}, err
	}
	return UpdateVideoInput{Title: title, Description: desc}, nil
}

// ListVideos holds the listing query string.
type ListVideos struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	OwnerID  string `form:"ownerId"`
	Query    string `form:"query"`
	SortBy   string `form:"sortBy"`
	SortType string `form:"sortType"`
}

// Validate returns a query without ViewerID; the caller fills it in.
func (l ListVideos) Validate() (model.VideoQuery, error) {
	q := model.VideoQuery{Page: l.Page, Limit: l.Limit, Search: strings.TrimSpace(l.Query)}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 0 {
		return model.VideoQuery{}, errs.Validation("page must be positive")
	}
	if q.Page > maxPage {
		return model.VideoQuery{}, errs.Validation("page is too large")
	}
	switch {
	case q.Limit == 0:
		q.Limit = defaultPageLimit
	case q.Limit < 0:
		return model.VideoQuery{}, errs.Validation("limit must be positive")
	case q.Limit > maxPageLimit:
		q.Limit = maxPageLimit
	}
	if l.OwnerID != "" {
		id, err := ParseID("ownerId", l.OwnerID)
		if err != nil {
			return model.VideoQuery{}, err
		}
		q.OwnerID = id
	}
	switch l.SortBy {
	case "", "createdAt", "created_at":
		q.SortBy = "created_at"
	case "title", "duration":
		q.SortBy = l.SortBy
	default:
		return model.VideoQuery{}, errs.Validation("sortBy must be one of createdAt, title, duration")
	}
	switch strings.ToLower(l.SortType) {
	case "", "desc":
		q.SortDesc = true
	case "asc":
	default:
		return model.VideoQuery{}, errs.Validation("sortType must be asc or desc")
	}
	return q, nil
}

// CreatePlaylist is the playlist creation payload.
type CreatePlaylist struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// CreatePlaylistInput is a validated CreatePlaylist.
type CreatePlaylistInput struct {
	Name        string
	Description string
}

func (c CreatePlaylist) Validate() (CreatePlaylistInput, error) {
	name, err := requireText("name", c.Name, maxNameLen)
	if err != nil {
		return CreatePlaylistInput{}, err
	}
	desc, err := requireText("description", c.Description, maxTextLen)
	if err != nil {
		return CreatePlaylistInput{}, err
	}
	return CreatePlaylistInput{Name: name, Description: desc}, nil
}

// UpdatePlaylist changes playlist details; omitted fields stay as they are.
type UpdatePlaylist struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// UpdatePlaylistInput is a validated UpdatePlaylist.
type UpdatePlaylistInput struct {
	Name        *string
	Description *string
}

func (u UpdatePlaylist) Validate() (UpdatePlaylistInput, error) {
	if u.Name == nil && u.Description == nil {
		return UpdatePlaylistInput{}, errs.Validation("name or description is required")
	}
	name, err := optionalText("name", u.Name, maxNameLen)
	if err != nil {
		return UpdatePlaylistInput{}, err
	}
	desc, err := optionalText("description", u.Description, maxTextLen)
	if err != nil {
		return UpdatePlaylistInput{}, err
	}
	return UpdatePlaylistInput{Name: name, Description: desc}, nil
}

// AddComment is the comment payload.
type AddComment struct {
	Content string `json:"content" binding:"required"`
}

// Validate returns the trimmed content.
func (a AddComment) Validate() (string, error) {
	return requireText("content", a.Content, maxTextLen)
}
