// Package httpserver exposes the vidhub REST API over gin.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/service"
	"github.com/gofrs/uuid/v5"
)

// Services are the application services behind the handlers.
type Services struct {
	Auth       service.AuthService
	Tokens     service.TokenService
	Accounts   service.AccountService
	Relations  service.RelationService
	Aggregates service.AggregateService
	Videos     service.VideoService
	Playlists  service.PlaylistService
}

// Options configure transport concerns.
type Options struct {
	Log *zap.Logger

	CookieSecure bool
	CookieDomain string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration

	MaxUploadBytes int64
	UploadDir      string // multipart files are spooled here; "" means os.TempDir
	MediaDir       string // served under /media when set

	Limiter     HitLimiter // nil disables the auth route limiter
	AuthLimit   int
	AuthWindow  time.Duration
	Metrics     *Metrics
	MetricsHTTP http.Handler                // served under /metrics when set
	Ready       func(context.Context) error // checked by /readyz
}

// Server wires services into gin handlers.
type Server struct {
	svc  Services
	opts Options
	log  *zap.Logger
}

// New constructs the HTTP layer.
func New(svc Services, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	return &Server{svc: svc, opts: opts, log: opts.Log}
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(RequestID(), Recover(s.log), Logging(s.log), s.opts.Metrics.Handler())

	r.GET("/healthz", func(c *gin.Context) { respond(c, http.StatusOK, nil, "ok") })
	r.GET("/readyz", s.ready)
	if s.opts.MetricsHTTP != nil {
		r.GET("/metrics", gin.WrapH(s.opts.MetricsHTTP))
	}
	if s.opts.MediaDir != "" {
		r.Static("/media", s.opts.MediaDir)
	}

	api := r.Group("/api/v1")
	limited := RateLimit(s.opts.Limiter, s.opts.AuthLimit, s.opts.AuthWindow, s.log)
	auth := Session(s.svc.Tokens)

	users := api.Group("/users")
	users.POST("/register", limited, s.register)
	users.POST("/login", limited, s.login)
	users.POST("/refresh-token", limited, s.refresh)
	users.POST("/logout", auth, s.logout)
	users.POST("/change-password", auth, s.changePassword)
	users.PATCH("/update-account", auth, s.updateAccount)
	users.PATCH("/avatar", auth, s.updateAvatar)
	users.PATCH("/cover-image", auth, s.updateCoverImage)
	users.GET("/current-user", auth, s.currentUser)
	users.GET("/c/:username", auth, s.channelProfile)
	users.GET("/history", auth, s.watchHistory)

	videos := api.Group("/videos", auth)
	videos.GET("", s.listVideos)
	videos.POST("", s.publishVideo)
	videos.GET("/:videoId", s.getVideo)
	videos.PATCH("/:videoId", s.updateVideo)
	videos.DELETE("/:videoId", s.deleteVideo)
	videos.PATCH("/toggle/publish/:videoId", s.togglePublish)
	videos.GET("/:videoId/comments", s.listComments)
	videos.POST("/:videoId/comments", s.addComment)

	subs := api.Group("/subscriptions", auth)
	subs.POST("/c/:channelId", s.toggleSubscription)
	subs.GET("/c/:channelId", s.subscribers)
	subs.GET("/u/:subscriberId", s.subscribedChannels)

	likes := api.Group("/likes", auth)
	likes.POST("/toggle/v/:videoId", s.toggleVideoLike)
	likes.POST("/toggle/c/:commentId", s.toggleCommentLike)
	likes.GET("/videos", s.likedVideos)

	pl := api.Group("/playlists", auth)
	pl.POST("", s.createPlaylist)
	pl.GET("/:playlistId", s.getPlaylist)
	pl.GET("/user/:userId", s.userPlaylists)
	pl.PATCH("/:playlistId", s.updatePlaylist)
	pl.DELETE("/:playlistId", s.deletePlaylist)
	pl.PATCH("/add/:videoId/:playlistId", s.addToPlaylist)
	pl.PATCH("/remove/:videoId/:playlistId", s.removeFromPlaylist)

	r.NoRoute(func(c *gin.Context) { abortWith(c, http.StatusNotFound, "route not found") })
	return r
}

func (s *Server) ready(c *gin.Context) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			s.log.Warn("not ready", zap.Error(err))
			abortWith(c, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	respond(c, http.StatusOK, nil, "ready")
}

// viewerID returns the identity put on the context by Session.
func viewerID(c *gin.Context) uuid.UUID {
	id, _ := UserIDFromCtx(c.Request.Context())
	return id
}
