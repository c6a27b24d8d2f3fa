// Package cli implements authctl, a small command-line client for the auth
// server. Commands run once from the command line or interactively in a REPL
// when no command is given.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
)

// AuthClient is the server API the commands use.
type AuthClient interface {
	Register(ctx context.Context, email, password string, name *string) (*client.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Refresh(ctx context.Context) (*client.AuthResponse, error)
	Logout(ctx context.Context) (*client.MessageResponse, error)
	RequestPasswordReset(ctx context.Context, email string) (*client.MessageResponse, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*client.MessageResponse, error)
	Me(ctx context.Context) (*client.User, error)
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    AuthClient
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	store := session.NewFileStore(c.SessionFile)
	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, store)
	return newApp(c, api, os.Stdin, os.Stdout)
}

func newApp(c *config.Config, api AuthClient, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, reader: bufio.NewReader(in), out: out}
}

// Run executes args as a single command, or starts the REPL when args is
// empty. It returns the command's error, if any.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.runREPL(ctx)
		return nil
	}
	return a.exec(ctx, args[0], args[1:])
}
