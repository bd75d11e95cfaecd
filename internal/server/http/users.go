package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/and161185/vidhub/internal/convert"
	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/input"
	"github.com/and161185/vidhub/internal/model"
	"github.com/gofrs/uuid/v5"
)

func (s *Server) register(c *gin.Context) {
	s.limitBody(c)
	var req input.Register
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, bindError(err, "invalid registration form"))
		return
	}
	in, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	avatar, err := s.saveUpload(c, "avatar")
	if err != nil {
		s.fail(c, err)
		return
	}
	cover, err := s.saveUpload(c, "coverImage")
	if err != nil {
		s.discard(avatar)
		s.fail(c, err)
		return
	}
	defer s.discard(avatar, cover)

	u, err := s.svc.Auth.Register(c.Request.Context(), in, avatar, cover)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, convert.ToUser(u), "user registered successfully")
}

func (s *Server) login(c *gin.Context) {
	var req input.Login
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err, "invalid request body"))
		return
	}
	in, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	pair, u, err := s.svc.Auth.Login(c.Request.Context(), in, c.ClientIP())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setSession(c, pair)
	respond(c, http.StatusOK, convert.ToSession(pair, u), "user logged in successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refresh takes the token from the refresh cookie, falling back to the JSON body.
func (s *Server) refresh(c *gin.Context) {
	tok, _ := c.Cookie(refreshCookie)
	if tok == "" {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		tok = strings.TrimSpace(req.RefreshToken)
	}
	if tok == "" {
		abortWith(c, http.StatusUnauthorized, "unauthorized request")
		return
	}
	pair, err := s.svc.Auth.Refresh(c.Request.Context(), tok)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setSession(c, pair)
	respond(c, http.StatusOK, convert.ToSession(pair, nil), "access token refreshed")
}

func (s *Server) logout(c *gin.Context) {
	if err := s.svc.Auth.Logout(c.Request.Context(), viewerID(c)); err != nil {
		s.fail(c, err)
		return
	}
	s.clearSession(c)
	respond(c, http.StatusOK, gin.H{}, "user logged out")
}

func (s *Server) changePassword(c *gin.Context) {
	var req input.ChangePassword
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err, "invalid request body"))
		return
	}
	in, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.svc.Auth.ChangePassword(c.Request.Context(), viewerID(c), in); err != nil {
		s.fail(c, err)
		return
	}
	s.clearSession(c)
	respond(c, http.StatusOK, gin.H{}, "password changed successfully")
}

func (s *Server) updateAccount(c *gin.Context) {
	var req input.UpdateAccount
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err, "invalid request body"))
		return
	}
	in, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	u, err := s.svc.Accounts.UpdateAccount(c.Request.Context(), viewerID(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToUser(u), "account details updated")
}

func (s *Server) updateAvatar(c *gin.Context) {
	s.replaceImage(c, "avatar", s.svc.Accounts.UpdateAvatar)
}

func (s *Server) updateCoverImage(c *gin.Context) {
	s.replaceImage(c, "coverImage", s.svc.Accounts.UpdateCoverImage)
}

func (s *Server) replaceImage(c *gin.Context, field string, update func(context.Context, uuid.UUID, string) (*model.Identity, error)) {
	s.limitBody(c)
	path, err := s.saveUpload(c, field)
	if err != nil {
		s.fail(c, err)
		return
	}
	if path == "" {
		s.fail(c, errs.Validation("%s file is missing", field))
		return
	}
	defer s.discard(path)

	u, err := update(c.Request.Context(), viewerID(c), path)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToUser(u), field+" updated successfully")
}

func (s *Server) currentUser(c *gin.Context) {
	u, err := s.svc.Accounts.CurrentUser(c.Request.Context(), viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToUser(u), "current user fetched successfully")
}

func (s *Server) channelProfile(c *gin.Context) {
	username := strings.ToLower(strings.TrimSpace(c.Param("username")))
	if username == "" {
		s.fail(c, errs.Validation("username is missing"))
		return
	}
	cp, err := s.svc.Aggregates.ChannelProfile(c.Request.Context(), username, viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToChannel(cp), "user channel fetched successfully")
}

func (s *Server) watchHistory(c *gin.Context) {
	h, err := s.svc.Aggregates.WatchHistory(c.Request.Context(), viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToHistory(h), "watch history fetched successfully")
}
