package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	AvatarKey string `json:"avatarKey"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createPostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageKey string `json:"imageKey"`
}

type updatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid body")
		return
	}

	user, token, err := s.users.Signup(c.Request.Context(), req.Name, req.Email, req.Password, req.AvatarKey)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"userId": user.ID,
		"email":  user.Email,
		"token":  token,
	})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid body")
		return
	}

	user, token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId": user.ID,
		"email":  user.Email,
		"token":  token,
	})
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (s *Server) getUser(c *gin.Context) {
	user, err := s.users.GetByID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (s *Server) listUserPosts(c *gin.Context) {
	posts, err := s.posts.ListByUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"posts": out})
}

func (s *Server) listPosts(c *gin.Context) {
	posts, err := s.posts.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"posts": out})
}

func (s *Server) getPost(c *gin.Context) {
	post, err := s.posts.GetByID(c.Request.Context(), c.Param("pid"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": toPostResponse(post)})
}

func (s *Server) postImage(c *gin.Context) {
	url, err := s.posts.ImageURL(c.Request.Context(), c.Param("pid"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// createPost takes the owner identity from the verified token only.
func (s *Server) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Title == "" || req.Content == "" {
		abortWithError(c, http.StatusUnprocessableEntity, "title and content are required")
		return
	}

	post, err := s.posts.Create(c.Request.Context(), callerID(c), req.Title, req.Content, req.ImageKey)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "post created", "post_id", post.ID, "user_id", post.UserID)
	c.JSON(http.StatusCreated, gin.H{"post": toPostResponse(post)})
}

func (s *Server) updatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Title == "" || req.Content == "" {
		abortWithError(c, http.StatusUnprocessableEntity, "title and content are required")
		return
	}

	post, err := s.posts.Update(c.Request.Context(), callerID(c), c.Param("pid"), req.Title, req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": toPostResponse(post)})
}

func (s *Server) deletePost(c *gin.Context) {
	if err := s.posts.Delete(c.Request.Context(), callerID(c), c.Param("pid")); err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "post deleted", "post_id", c.Param("pid"))
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (s *Server) presignUpload(c *gin.Context) {
	key, url, err := s.posts.PresignUpload(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "uploadUrl": url})
}
