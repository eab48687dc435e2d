package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okolesov/postline/internal/common"
	"github.com/okolesov/postline/internal/dbx"
	"github.com/okolesov/postline/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {

	query :=
		`INSERT INTO posts (id, user_id, title, content, image_key)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.ID, post.UserID, post.Title, post.Content, post.ImageKey).
		Scan(&post.ID, &post.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query :=
		`SELECT id, user_id, title, content, image_key, created_at
		 FROM posts
		 WHERE id = $1
		 `

	post := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&post.ID, &post.UserID, &post.Title, &post.Content, &post.ImageKey, &post.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Post, error) {
	query :=
		`SELECT id, user_id, title, content, image_key, created_at
		 FROM posts
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectPosts(rows)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	query :=
		`SELECT id, user_id, title, content, image_key, created_at
		 FROM posts
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return collectPosts(rows)
}

func (r *PostgresRepository) Update(ctx context.Context, id, title, content string) error {
	query :=
		`UPDATE posts SET title = $2, content = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, title, content)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkAffected(res)
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query :=
		`DELETE FROM posts
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return checkAffected(res)
}

func collectPosts(rows *sql.Rows) ([]*models.Post, error) {
	defer rows.Close()

	result := []*models.Post{}
	for rows.Next() {
		post := &models.Post{}
		err := rows.Scan(&post.ID, &post.UserID, &post.Title, &post.Content, &post.ImageKey, &post.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
