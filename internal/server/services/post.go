package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okolesov/postline/internal/common"
	"github.com/okolesov/postline/internal/dbx"
	"github.com/okolesov/postline/internal/logging"
	"github.com/okolesov/postline/internal/server/artifacts"
	"github.com/okolesov/postline/internal/server/config"
	"github.com/okolesov/postline/internal/server/models"
	"github.com/okolesov/postline/internal/server/ownership"
	"github.com/okolesov/postline/internal/server/repositories/repomanager"
)

// artifactCleanupTimeout bounds the single post-commit artifact removal
// attempt. Cleanup runs detached from the request context.
const artifactCleanupTimeout = 30 * time.Second

// spawn is a test seam: tests replace it to run dispatched work
// synchronously.
var spawn = func(f func()) { go f() }

// PostService coordinates every post mutation so that the post row and the
// owning user's post-id set always change inside one transaction. Ownership
// is checked through ownership.Authorize before any write. After a committed
// delete the referenced artifact is removed best-effort.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	artifacts   artifacts.Store
	config      *config.Config
	logger      logging.Logger
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, store artifacts.Store, cfg *config.Config, l logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		artifacts:   store,
		config:      cfg,
		logger:      l.With("module", "post_service"),
	}
}

// Create inserts a new post owned by ownerID and appends its id to the
// owner's post set, atomically. A missing owner aborts before any write.
func (s *PostService) Create(ctx context.Context, ownerID, title, content, imageKey string) (*models.Post, error) {

	if ownerID == "" {
		return nil, common.ErrorInvalidArgument
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrCreateFailed, err)
	}

	post := &models.Post{
		ID:       uuid.NewString(),
		UserID:   ownerID,
		Title:    title,
		Content:  content,
		ImageKey: imageKey,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Posts(tx).Create(ctx, post); err != nil {
			return err
		}
		return s.repomanager.Users(tx).AddPostID(ctx, ownerID, post.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCreateFailed, err)
	}

	return post, nil
}

// Update changes title and content of a post. Only the owner may update;
// the check runs before any write and a storage failure leaves the original
// values in place.
func (s *PostService) Update(ctx context.Context, callerID, postID, title, content string) (*models.Post, error) {

	if callerID == "" || postID == "" {
		return nil, common.ErrorInvalidArgument
	}

	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUpdateFailed, err)
	}

	if err := ownership.Authorize(callerID, post.UserID); err != nil {
		return nil, err
	}

	if err := repo.Update(ctx, postID, title, content); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUpdateFailed, err)
	}

	post.Title = title
	post.Content = content
	return post, nil
}

// Delete removes a post and detaches it from its owner's post set in one
// transaction, then dispatches best-effort removal of the post's artifact.
// Of two racing deletes exactly one succeeds; the loser observes not-found
// before the owner's set is touched.
func (s *PostService) Delete(ctx context.Context, callerID, postID string) error {

	if callerID == "" || postID == "" {
		return common.ErrorInvalidArgument
	}

	post, err := s.repomanager.Posts(s.db).GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: %v", common.ErrDeleteFailed, err)
	}

	if err := ownership.Authorize(callerID, post.UserID); err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Posts(tx).DeleteByID(ctx, postID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).RemovePostID(ctx, post.UserID, postID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: %v", common.ErrDeleteFailed, err)
	}

	if post.ImageKey != "" {
		s.dispatchArtifactCleanup(post.ID, post.ImageKey)
	}

	return nil
}

// GetByID returns a single post.
func (s *PostService) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if id == "" {
		return nil, common.ErrorInvalidArgument
	}
	return s.repomanager.Posts(s.db).GetByID(ctx, id)
}

// List returns all posts, newest first.
func (s *PostService) List(ctx context.Context) ([]*models.Post, error) {
	return s.repomanager.Posts(s.db).List(ctx)
}

// ListByUser returns the posts owned by userID, newest first.
func (s *PostService) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	if userID == "" {
		return nil, common.ErrorInvalidArgument
	}
	return s.repomanager.Posts(s.db).ListByUser(ctx, userID)
}

// PresignUpload returns a fresh storage key and a presigned PUT URL.
func (s *PostService) PresignUpload(ctx context.Context) (string, string, error) {
	return s.artifacts.PresignPut(ctx)
}

// ImageURL returns a presigned GET URL for the post's artifact.
func (s *PostService) ImageURL(ctx context.Context, postID string) (string, error) {
	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	if post.ImageKey == "" {
		return "", common.ErrorNotFound
	}
	return s.artifacts.PresignGet(ctx, post.ImageKey)
}

// dispatchArtifactCleanup attempts a single detached removal of the
// artifact. The delete is already committed, so a failure here is logged
// and swallowed.
func (s *PostService) dispatchArtifactCleanup(postID, key string) {
	spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), artifactCleanupTimeout)
		defer cancel()

		if err := s.artifacts.Remove(ctx, key); err != nil {
			s.logger.Warn(ctx, "artifact cleanup failed", "post_id", postID, "key", key, "error", err.Error())
		}
	})
}
