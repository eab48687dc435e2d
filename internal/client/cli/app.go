// Package cli implements the interactive Postline client: a small REPL for
// registering, logging in, and managing the caller's own posts.
package cli

import (
	"bufio"
	"os"

	"github.com/okolesov/postline/internal/client/api"
	"github.com/okolesov/postline/internal/client/config"
)

type App struct {
	config *config.Config
	client *api.Client
	userID string
	email  string
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	return &App{
		config: c,
		client: api.NewClient(c.ServerURL),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.userID != ""
}

func (a *App) getStatus() string {
	if a.email == "" {
		return ""
	}
	return "(" + a.email + ")"
}
