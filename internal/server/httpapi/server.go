// Package httpapi exposes the service over HTTP. The mutating routes run
// behind the identity middleware; handlers stay thin and delegate to the
// services.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okolesov/postline/internal/logging"
	"github.com/okolesov/postline/internal/server/services"
)

type Server struct {
	address   string
	users     *services.UserService
	posts     *services.PostService
	logger    logging.Logger
	jwtSecret []byte
}

func NewServer(a string, l logging.Logger, us *services.UserService, ps *services.PostService, secretKey string) (*Server, error) {
	return &Server{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		posts:     ps,
		jwtSecret: []byte(secretKey),
	}, nil
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS())

	api := r.Group("/api")

	u := api.Group("/users")
	u.POST("/signup", s.signup)
	u.POST("/login", s.login)
	u.GET("", s.listUsers)
	u.GET("/:uid", s.getUser)
	u.GET("/:uid/posts", s.listUserPosts)

	feed := api.Group("/feed")
	feed.GET("/posts", s.listPosts)
	feed.GET("/posts/:pid", s.getPost)
	feed.GET("/posts/:pid/image", s.postImage)

	authed := api.Group("")
	authed.Use(s.requireAuth())
	authed.POST("/feed/posts", s.createPost)
	authed.PUT("/feed/posts/:pid", s.updatePost)
	authed.DELETE("/feed/posts/:pid", s.deletePost)
	authed.POST("/uploads", s.presignUpload)

	return r
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
