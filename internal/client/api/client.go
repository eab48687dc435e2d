// Package api implements the HTTP client the CLI uses to talk to the
// Postline server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/okolesov/postline/internal/common"
)

// ErrUnavailable is returned when the server cannot be reached.
var ErrUnavailable = fmt.Errorf("server unavailable")

type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImageKey  string `json:"imageKey"`
	Creator   string `json:"creator"`
	CreatedAt string `json:"createdAt"`
}

type authResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken stores the access token attached to subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// Register creates an account and returns the issued token and user id.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, string, error) {
	body := map[string]string{"name": name, "email": email, "password": password}

	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/signup", body, &resp); err != nil {
		return "", "", err
	}
	return resp.Token, resp.UserID, nil
}

// Login authenticates and returns the issued token and user id.
func (c *Client) Login(ctx context.Context, email, password string) (string, string, error) {
	body := map[string]string{"email": email, "password": password}

	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/login", body, &resp); err != nil {
		return "", "", err
	}
	return resp.Token, resp.UserID, nil
}

func (c *Client) CreatePost(ctx context.Context, title, content, imageKey string) (*Post, error) {
	body := map[string]string{"title": title, "content": content, "imageKey": imageKey}

	var resp struct {
		Post Post `json:"post"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/feed/posts", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Post, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var resp struct {
		Posts []Post `json:"posts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/feed/posts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/feed/posts/"+id, nil, nil)
}

// PresignUpload asks the server for a storage key and a presigned PUT URL.
func (c *Client) PresignUpload(ctx context.Context) (string, string, error) {
	var resp struct {
		Key       string `json:"key"`
		UploadURL string `json:"uploadUrl"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/uploads", nil, &resp); err != nil {
		return "", "", err
	}
	return resp.Key, resp.UploadURL, nil
}

// UploadFile PUTs the file at path to a presigned URL.
func (c *Client) UploadFile(ctx context.Context, url, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return err
	}
	req.ContentLength = st.Size()

	resp, err := c.http.Do(req)
	if err != nil {
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload failed: %s", resp.Status)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthHeaderName, common.BearerPrefix+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var e struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&e)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusForbidden:
		return common.ErrorForbidden
	case http.StatusNotFound:
		return common.ErrorNotFound
	}
	if e.Message != "" {
		return fmt.Errorf("server error: %s", e.Message)
	}
	return fmt.Errorf("server error: %s", resp.Status)
}
