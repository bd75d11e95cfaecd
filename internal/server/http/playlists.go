package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/and161185/vidhub/internal/convert"
	"github.com/and161185/vidhub/internal/input"
)

func (s *Server) createPlaylist(c *gin.Context) {
	var req input.CreatePlaylist
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err, "invalid request body"))
		return
	}
	in, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := s.svc.Playlists.Create(c.Request.Context(), viewerID(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, convert.ToPlaylist(p), "playlist created successfully")
}

func (s *Server) getPlaylist(c *gin.Context) {
	id, ok := s.pathID(c, "playlistId")
	if !ok {
		return
	}
	pc, err := s.svc.Aggregates.PlaylistContents(c.Request.Context(), id, viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPlaylistContents(pc), "playlist fetched successfully")
}

func (s *Server) userPlaylists(c *gin.Context) {
	owner, ok := s.pathID(c, "userId")
	if !ok {
		return
	}
	lists, err := s.svc.Aggregates.UserPlaylists(c.Request.Context(), owner, viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPlaylistContentsList(lists), "user playlists fetched successfully")
}

func (s *Server) updatePlaylist(c *gin.Context) {
	id, ok := s.pathID(c, "playlistId")
	if !ok {
		return
	}
	var req input.UpdatePlaylist
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err, "invalid request body"))
		return
	}
	in, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := s.svc.Playlists.Update(c.Request.Context(), id, viewerID(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPlaylist(p), "playlist updated successfully")
}

func (s *Server) deletePlaylist(c *gin.Context) {
	id, ok := s.pathID(c, "playlistId")
	if !ok {
		return
	}
	if err := s.svc.Playlists.Delete(c.Request.Context(), id, viewerID(c)); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "playlist deleted successfully")
}

func (s *Server) addToPlaylist(c *gin.Context) {
	videoID, ok := s.pathID(c, "videoId")
	if !ok {
		return
	}
	id, ok := s.pathID(c, "playlistId")
	if !ok {
		return
	}
	p, err := s.svc.Playlists.AddVideo(c.Request.Context(), id, videoID, viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPlaylist(p), "video added to playlist")
}

func (s *Server) removeFromPlaylist(c *gin.Context) {
	videoID, ok := s.pathID(c, "videoId")
	if !ok {
		return
	}
	id, ok := s.pathID(c, "playlistId")
	if !ok {
		return
	}
	p, err := s.svc.Playlists.RemoveVideo(c.Request.Context(), id, videoID, viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToPlaylist(p), "video removed from playlist")
}
