package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/okolesov/postline/internal/common"
	"github.com/okolesov/postline/internal/dbx"
	"github.com/okolesov/postline/internal/logging"
	"github.com/okolesov/postline/internal/server/config"
	"github.com/okolesov/postline/internal/server/models"
	"github.com/okolesov/postline/internal/server/repositories/posts"
	"github.com/okolesov/postline/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User

	createErr error
	addErr    error
	removeErr error

	created     []*models.User
	addedPosts  [][2]string
	removedList [][2]string
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		byID:    map[string]*models.User{},
		byEmail: map[string]*models.User{},
	}
}

func (r *fakeUsersRepo) put(u *models.User) {
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
}

func (r *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	u.CreatedAt = time.Now()
	r.put(u)
	r.created = append(r.created, u)
	return u, nil
}

func (r *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *fakeUsersRepo) List(ctx context.Context) ([]*models.User, error) {
	result := []*models.User{}
	for _, u := range r.byID {
		result = append(result, u)
	}
	return result, nil
}

func (r *fakeUsersRepo) AddPostID(ctx context.Context, userID, postID string) error {
	if r.addErr != nil {
		return r.addErr
	}
	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PostIDs = append(u.PostIDs, postID)
	r.addedPosts = append(r.addedPosts, [2]string{userID, postID})
	return nil
}

func (r *fakeUsersRepo) RemovePostID(ctx context.Context, userID, postID string) error {
	if r.removeErr != nil {
		return r.removeErr
	}
	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	kept := []string{}
	for _, id := range u.PostIDs {
		if id != postID {
			kept = append(kept, id)
		}
	}
	u.PostIDs = kept
	r.removedList = append(r.removedList, [2]string{userID, postID})
	return nil
}

type fakePostsRepo struct {
	byID map[string]*models.Post

	createErr error
	deleteErr error
	updateErr error

	deleted []string
}

func newFakePostsRepo() *fakePostsRepo {
	return &fakePostsRepo{byID: map[string]*models.Post{}}
}

func (r *fakePostsRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	p.CreatedAt = time.Now()
	r.byID[p.ID] = p
	return p, nil
}

func (r *fakePostsRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (r *fakePostsRepo) List(ctx context.Context) ([]*models.Post, error) {
	result := []*models.Post{}
	for _, p := range r.byID {
		result = append(result, p)
	}
	return result, nil
}

func (r *fakePostsRepo) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	result := []*models.Post{}
	for _, p := range r.byID {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *fakePostsRepo) Update(ctx context.Context, id, title, content string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	p, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Title = title
	p.Content = content
	return nil
}

func (r *fakePostsRepo) DeleteByID(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeRepoManager struct {
	users *fakeUsersRepo
	posts *fakePostsRepo

	txHandles []dbx.DBTX
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{users: newFakeUsersRepo(), posts: newFakePostsRepo()}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	m.record(db)
	return m.users
}

func (m *fakeRepoManager) Posts(db dbx.DBTX) posts.Repository {
	m.record(db)
	return m.posts
}

func (m *fakeRepoManager) record(db dbx.DBTX) {
	if _, ok := db.(*sql.Tx); ok {
		m.txHandles = append(m.txHandles, db)
	}
}

type fakeArtifactStore struct {
	removeErr error
	removed   []string

	presignKey string
	presignURL string
}

func (s *fakeArtifactStore) PresignPut(ctx context.Context) (string, string, error) {
	return s.presignKey, s.presignURL, nil
}

func (s *fakeArtifactStore) PresignGet(ctx context.Context, key string) (string, error) {
	return s.presignURL + "/" + key, nil
}

func (s *fakeArtifactStore) Remove(ctx context.Context, key string) error {
	s.removed = append(s.removed, key)
	return s.removeErr
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// runSpawnedSync replaces the dispatch seam so cleanup runs inline.
func runSpawnedSync(t *testing.T) {
	t.Helper()
	orig := spawn
	spawn = func(f func()) { f() }
	t.Cleanup(func() { spawn = orig })
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func newPostService(db *sql.DB, m *fakeRepoManager, store *fakeArtifactStore) *PostService {
	return NewPostService(db, m, store, testConfig(), testLogger())
}

func TestPostCreate_CommitsPostAndOwnerSetTogether(t *testing.T) {
	db, mock := newMockDB(t)
	m := newFakeRepoManager()
	m.users.put(&models.User{ID: "u-1", Email: "ann@x.com", PostIDs: []string{}})

	mock.ExpectBegin()
	mock.ExpectCommit()

	svc := newPostService(db, m, &fakeArtifactStore{})
	post, err := svc.Create(context.Background(), "u-1", "First", "body", "")
	require.NoError(t, err)
	require.NotEmpty(t, post.ID)
	require.Equal(t, "u-1", post.UserID)

	require.Equal(t, []string{post.ID}, m.users.byID["u-1"].PostIDs)
	require.NotEmpty(t, m.posts.byID[post.ID])
	require.Len(t, m.txHandles, 2, "both writes must run on the transaction handle")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostCreate_MissingOwner(t *testing.T) {
	db, _ := newMockDB(t)
	m := newFakeRepoManager()

	svc := newPostService(db, m, &fakeArtifactStore{})
	_, err := svc.Create(context.Background(), "nobody", "First", "body", "")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.Empty(t, m.posts.byID, "no post may be written for a missing owner")
}

func TestPostCreate_EmptyOwnerID(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newPostService(db, newFakeRepoManager(), &fakeArtifactStore{})

	_, err := svc.Create(context.Background(), "", "First", "body", "")
	require.ErrorIs(t, err, common.ErrorInvalidArgument)
}

func TestPostCreate_RollsBackWhenOwnerSetUpdateFails(t *testing.T) {
	db, mock := newMockDB(t)
	m := newFakeRepoManager()
	m.users.put(&models.User{ID: "u-1", Email: "ann@x.com", PostIDs: []string{}})
	m.users.addErr = errors.New("append failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	svc := newPostService(db, m, &fakeArtifactStore{})
	_, err := svc.Create(context.Background(), "u-1", "First", "body", "")
	require.ErrorIs(t, err, common.ErrCreateFailed)
	require.NoError(t, mock.ExpectationsWereMet(), "a failed owner-set update must roll the unit back")
}

func TestPostUpdate_OwnerOnly(t *testing.T) {
	db, _ := newMockDB(t)
	m := newFakeRepoManager()
	m.posts.byID["p-1"] = &models.Post{ID: "p-1", UserID: "u-1", Title: "old", Content: "old"}

	svc := newPostService(db, m, &fakeArtifactStore{})

	_, err := svc.Update(context.Background(), "u-2", "p-1", "new", "new")
	require.ErrorIs(t, err, common.ErrorForbidden)
	require.Equal(t, "old", m.posts.byID["p-1"].Title, "denied update must leave the post unchanged")

	post, err := svc.Update(context.Background(), "u-1", "p-1", "new", "new body")
	require.NoError(t, err)
	require.Equal(t, "new", post.Title)
	require.Equal(t, "new body", m.posts.byID["p-1"].Content)
}

func TestPostUpdate_NotFound(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newPostService(db, newFakeRepoManager(), &fakeArtifactStore{})

	_, err := svc.Update(context.Background(), "u-1", "missing", "t", "c")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostDelete_RemovesRowAndOwnerEntryAndArtifact(t *testing.T) {
	runSpawnedSync(t)

	db, mock := newMockDB(t)
	m := newFakeRepoManager()
	m.users.put(&models.User{ID: "u-1", Email: "ann@x.com", PostIDs: []string{"p-1"}})
	m.posts.byID["p-1"] = &models.Post{ID: "p-1", UserID: "u-1", ImageKey: "img/p-1"}

	mock.ExpectBegin()
	mock.ExpectCommit()

	store := &fakeArtifactStore{}
	svc := newPostService(db, m, store)
	require.NoError(t, svc.Delete(context.Background(), "u-1", "p-1"))

	require.Empty(t, m.posts.byID)
	require.Empty(t, m.users.byID["u-1"].PostIDs)
	require.Equal(t, []string{"img/p-1"}, store.removed, "artifact removal dispatched exactly once")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostDelete_ArtifactFailureIsSwallowed(t *testing.T) {
	runSpawnedSync(t)

	db, mock := newMockDB(t)
	m := newFakeRepoManager()
	m.users.put(&models.User{ID: "u-1", Email: "ann@x.com", PostIDs: []string{"p-1"}})
	m.posts.byID["p-1"] = &models.Post{ID: "p-1", UserID: "u-1", ImageKey: "img/p-1"}

	mock.ExpectBegin()
	mock.ExpectCommit()

	store := &fakeArtifactStore{removeErr: errors.New("storage gone")}
	svc := newPostService(db, m, store)

	require.NoError(t, svc.Delete(context.Background(), "u-1", "p-1"),
		"the commit already happened, artifact errors must not surface")
	require.Len(t, store.removed, 1)
}

func TestPostDelete_NoArtifactDispatchWithoutImage(t *testing.T) {
	runSpawnedSync(t)

	db, mock := newMockDB(t)
	m := newFakeRepoManager()
	m.users.put(&models.User{ID: "u-1", Email: "ann@x.com", PostIDs: []string{"p-1"}})
	m.posts.byID["p-1"] = &models.Post{ID: "p-1", UserID: "u-1"}

	mock.ExpectBegin()
	mock.ExpectCommit()

	store := &fakeArtifactStore{}
	svc := newPostService(db, m, store)
	require.NoError(t, svc.Delete(context.Background(), "u-1", "p-1"))
	require.Empty(t, store.removed)
}

func TestPostDelete_ForbiddenForNonOwner(t *testing.T) {
	db, _ := newMockDB(t)
	m := newFakeRepoManager()
	m.users.put(&models.User{ID: "u-1", Email: "ann@x.com", PostIDs: []string{"p-1"}})
	m.posts.byID["p-1"] = &models.Post{ID: "p-1", UserID: "u-1"}

	svc := newPostService(db, m, &fakeArtifactStore{})
	err := svc.Delete(context.Background(), "u-2", "p-1")
	require.ErrorIs(t, err, common.ErrorForbidden)
	require.NotEmpty(t, m.posts.byID, "denied delete must leave the post in place")
}

// When the row disappears between the ownership check and the delete, the
// loser gets not-found and the owner's set stays untouched.
func TestPostDelete_RaceLoserSeesNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	m := newFakeRepoManager()
	m.users.put(&models.User{ID: "u-1", Email: "ann@x.com", PostIDs: []string{"p-1"}})
	m.posts.byID["p-1"] = &models.Post{ID: "p-1", UserID: "u-1"}
	m.posts.deleteErr = common.ErrorNotFound

	mock.ExpectBegin()
	mock.ExpectRollback()

	svc := newPostService(db, m, &fakeArtifactStore{})
	err := svc.Delete(context.Background(), "u-1", "p-1")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.Empty(t, m.users.removedList, "owner set must not change when the row delete lost the race")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostImageURL(t *testing.T) {
	db, _ := newMockDB(t)
	m := newFakeRepoManager()
	m.posts.byID["p-1"] = &models.Post{ID: "p-1", UserID: "u-1", ImageKey: "img/p-1"}
	m.posts.byID["p-2"] = &models.Post{ID: "p-2", UserID: "u-1"}

	store := &fakeArtifactStore{presignURL: "https://s3.local"}
	svc := newPostService(db, m, store)

	url, err := svc.ImageURL(context.Background(), "p-1")
	require.NoError(t, err)
	require.Equal(t, "https://s3.local/img/p-1", url)

	_, err = svc.ImageURL(context.Background(), "p-2")
	require.ErrorIs(t, err, common.ErrorNotFound, "a post without an image has no URL")
}

func TestPresignUpload(t *testing.T) {
	db, _ := newMockDB(t)
	store := &fakeArtifactStore{presignKey: "2026/08/abc", presignURL: "https://s3.local/put"}
	svc := newPostService(db, newFakeRepoManager(), store)

	key, url, err := svc.PresignUpload(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2026/08/abc", key)
	require.Equal(t, "https://s3.local/put", url)
}
