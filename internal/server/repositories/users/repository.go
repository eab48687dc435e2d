package users

import (
	"context"

	"github.com/okolesov/postline/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)

	// AddPostID and RemovePostID maintain the owner-side post-id set.
	// Callers must run them in the same transaction as the matching
	// posts-table write.
	AddPostID(ctx context.Context, userID, postID string) error
	RemovePostID(ctx context.Context, userID, postID string) error
}
