package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/and161185/vidhub/internal/convert"
	"github.com/and161185/vidhub/internal/input"
	"github.com/gofrs/uuid/v5"
)

// pathID parses a uuid path parameter, failing the request on error.
func (s *Server) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := input.ParseID(name, c.Param(name))
	if err != nil {
		s.fail(c, err)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) listVideos(c *gin.Context) {
	var req input.ListVideos
	if err := c.ShouldBindQuery(&req); err != nil {
		s.fail(c, bindError(err, "invalid query parameters"))
		return
	}
	q, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	q.ViewerID = viewerID(c)
	page, err := s.svc.Videos.List(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToVideoPage(page), "videos fetched successfully")
}

func (s *Server) publishVideo(c *gin.Context) {
	s.limitBody(c)
	var req input.PublishVideo
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, bindError(err, "invalid video form"))
		return
	}
	in, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	videoPath, err := s.saveUpload(c, "videoFile")
	if err != nil {
		s.fail(c, err)
		return
	}
	thumbPath, err := s.saveUpload(c, "thumbnail")
	if err != nil {
		s.discard(videoPath)
		s.fail(c, err)
		return
	}
	defer s.discard(videoPath, thumbPath)

	v, err := s.svc.Videos.Publish(c.Request.Context(), viewerID(c), in, videoPath, thumbPath)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, convert.ToVideo(*v), "video published successfully")
}

func (s *Server) getVideo(c *gin.Context) {
	id, ok := s.pathID(c, "videoId")
	if !ok {
		return
	}
	v, err := s.svc.Videos.View(c.Request.Context(), id, viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToVideo(*v), "video fetched successfully")
}

func (s *Server) updateVideo(c *gin.Context) {
	id, ok := s.pathID(c, "videoId")
	if !ok {
		return
	}
	s.limitBody(c)
	var req input.UpdateVideo
	if err := c.ShouldBind(&req); err != nil {
		s.fail(c, bindError(err, "invalid video form"))
		return
	}
	in, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	thumbPath, err := s.saveUpload(c, "thumbnail")
	if err != nil {
		s.fail(c, err)
		return
	}
	defer s.discard(thumbPath)

	v, err := s.svc.Videos.Update(c.Request.Context(), id, viewerID(c), in, thumbPath)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToVideo(*v), "video updated successfully")
}

func (s *Server) deleteVideo(c *gin.Context) {
	id, ok := s.pathID(c, "videoId")
	if !ok {
		return
	}
	if err := s.svc.Videos.Delete(c.Request.Context(), id, viewerID(c)); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "video deleted successfully")
}

func (s *Server) togglePublish(c *gin.Context) {
	id, ok := s.pathID(c, "videoId")
	if !ok {
		return
	}
	published, err := s.svc.Videos.TogglePublish(c.Request.Context(), id, viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.Published{IsPublished: published}, "publish status toggled")
}

func (s *Server) listComments(c *gin.Context) {
	id, ok := s.pathID(c, "videoId")
	if !ok {
		return
	}
	list, err := s.svc.Videos.Comments(c.Request.Context(), id, viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToComments(list), "comments fetched successfully")
}

func (s *Server) addComment(c *gin.Context) {
	id, ok := s.pathID(c, "videoId")
	if !ok {
		return
	}
	var req input.AddComment
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err, "invalid request body"))
		return
	}
	content, err := req.Validate()
	if err != nil {
		s.fail(c, err)
		return
	}
	cm, err := s.svc.Videos.AddComment(c.Request.Context(), id, viewerID(c), content)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, convert.ToComment(*cm), "comment added successfully")
}
