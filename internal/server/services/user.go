// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login, and issuing JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/okolesov/postline/internal/common"
	"github.com/okolesov/postline/internal/server/auth"
	"github.com/okolesov/postline/internal/server/config"
	"github.com/okolesov/postline/internal/server/models"
	"github.com/okolesov/postline/internal/server/repositories/repomanager"
)

// bcryptCost matches the work factor the service has always used for
// stored credentials.
const bcryptCost = 12

// UserService provides account operations:
//   - Signup: create a user and issue a first token
//   - Login: verify credentials and mint a token
//   - GetByID / List: read endpoints
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Signup creates a new account. The email is case-normalized and must be
// unique; the password is stored only as a bcrypt hash. On success a fresh
// access token is returned alongside the user, so signup doubles as login.
func (s *UserService) Signup(ctx context.Context, name, email, password, avatarKey string) (*models.User, string, error) {

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, "", common.ErrorInvalidArgument
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, "", common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, "", common.ErrorInternal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		AvatarKey:    avatarKey,
		PostIDs:      []string{},
	}

	created, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, "", common.ErrorAlreadyExists
		}
		return nil, "", common.ErrorInternal
	}

	token, err := s.generateAccessToken(created.ID, created.Email)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return created, token, nil
}

// Login verifies the provided password against the stored hash and, on
// success, returns the user and a new access token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := s.generateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return user, token, nil
}

// GetByID returns a single user.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, common.ErrorInvalidArgument
	}
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).List(ctx)
}

func (s *UserService) generateAccessToken(userID, email string) (string, error) {
	return auth.GenerateToken(userID, email, s.jwtSecret, s.accessTokenValidityDuration)
}
