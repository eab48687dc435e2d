package posts

import (
	"context"

	"github.com/okolesov/postline/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Post, error)
	Update(ctx context.Context, id, title, content string) error

	// DeleteByID removes the post row. When the row is already gone it
	// returns common.ErrorNotFound, so of two racing deletes exactly one
	// succeeds.
	DeleteByID(ctx context.Context, id string) error
}
