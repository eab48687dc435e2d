package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okolesov/postline/internal/common"
	"github.com/okolesov/postline/internal/server/models"
)

type userResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	AvatarKey string   `json:"avatarKey,omitempty"`
	Posts     []string `json:"posts"`
	CreatedAt string   `json:"createdAt"`
}

type postResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImageKey  string `json:"imageKey,omitempty"`
	Creator   string `json:"creator"`
	CreatedAt string `json:"createdAt"`
}

func toUserResponse(u *models.User) userResponse {
	posts := u.PostIDs
	if posts == nil {
		posts = []string{}
	}
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarKey: u.AvatarKey,
		Posts:     posts,
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toPostResponse(p *models.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageKey:  p.ImageKey,
		Creator:   p.UserID,
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// respondError maps a classified service error to a stable status and a
// fixed message. Storage detail never crosses the API boundary.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorInvalidArgument):
		abortWithError(c, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		abortWithError(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrorForbidden):
		abortWithError(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrorNotFound):
		abortWithError(c, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		abortWithError(c, http.StatusUnprocessableEntity, "already exists")
	default:
		s.logger.Error(c.Request.Context(), err.Error())
		abortWithError(c, http.StatusInternalServerError, "internal error")
	}
}
