package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/and161185/vidhub/internal/convert"
)

func (s *Server) toggleSubscription(c *gin.Context) {
	ch, ok := s.pathID(c, "channelId")
	if !ok {
		return
	}
	on, err := s.svc.Relations.ToggleSubscription(c.Request.Context(), viewerID(c), ch)
	if err != nil {
		s.fail(c, err)
		return
	}
	msg := "subscription removed successfully"
	if on {
		msg = "subscription added successfully"
	}
	respond(c, http.StatusOK, gin.H{"subscribed": on}, msg)
}

func (s *Server) subscribers(c *gin.Context) {
	ch, ok := s.pathID(c, "channelId")
	if !ok {
		return
	}
	list, err := s.svc.Aggregates.Subscribers(c.Request.Context(), ch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToSubscribers(list), "channel subscribers fetched successfully")
}

func (s *Server) subscribedChannels(c *gin.Context) {
	sub, ok := s.pathID(c, "subscriberId")
	if !ok {
		return
	}
	list, err := s.svc.Aggregates.SubscribedChannels(c.Request.Context(), sub)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToSubscriptions(list), "subscribed channels fetched successfully")
}

func (s *Server) toggleVideoLike(c *gin.Context) {
	id, ok := s.pathID(c, "videoId")
	if !ok {
		return
	}
	on, err := s.svc.Relations.ToggleVideoLike(c.Request.Context(), viewerID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"liked": on}, likeMessage("video", on))
}

func (s *Server) toggleCommentLike(c *gin.Context) {
	id, ok := s.pathID(c, "commentId")
	if !ok {
		return
	}
	on, err := s.svc.Relations.ToggleCommentLike(c.Request.Context(), viewerID(c), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"liked": on}, likeMessage("comment", on))
}

func likeMessage(kind string, on bool) string {
	if on {
		return kind + " like added"
	}
	return kind + " like removed"
}

func (s *Server) likedVideos(c *gin.Context) {
	vids, err := s.svc.Aggregates.LikedVideos(c.Request.Context(), viewerID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, convert.ToVideos(vids), "liked videos fetched successfully")
}
