package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
)

var ErrUnknownCommand = errors.New("unknown command")

const usage = `Commands:
  register [email]   create an account and log in
  login [email]      log in
  refresh            rotate the stored token pair
  logout             revoke the session and forget it
  forgot [email]     request a password reset link
  reset [token]      set a new password with a reset token
  me                 show the current user
  ping               check the server
  help               show this help
  exit | quit        leave the REPL`

func (a *App) exec(ctx context.Context, cmd string, args []string) error {
	var err error

	switch cmd {
	case "help":
		fmt.Fprintln(a.out, usage)
	case "register":
		err = a.register(ctx, args)
	case "login":
		err = a.login(ctx, args)
	case "refresh":
		err = a.refresh(ctx)
	case "logout":
		err = a.logout(ctx)
	case "forgot":
		err = a.forgot(ctx, args)
	case "reset":
		err = a.reset(ctx, args)
	case "me":
		err = a.me(ctx)
	case "ping":
		err = a.ping(ctx)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}

	if err != nil {
		fmt.Fprintln(a.out, "error:", describe(err))
	}
	return err
}

// describe turns client errors into something a person can act on.
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		return "not logged in, run 'login' first"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}

// argOrPrompt returns args[0] when given, otherwise asks for it.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) register(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, "Enter email")
	if err != nil {
		return err
	}

	nameText, err := GetSimpleText(a.reader, "Enter name (optional)", a.out)
	if err != nil {
		return err
	}
	var name *string
	if nameText != "" {
		name = &nameText
	}

	password, err := a.newPassword()
	if err != nil {
		return err
	}

	res, err := a.api.Register(ctx, email, password, name)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, res.Message)
	a.printUser(res.User)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, "Enter email")
	if err != nil {
		return err
	}

	password, err := GetPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}

	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, res.Message)
	a.printUser(res.User)
	return nil
}

func (a *App) refresh(ctx context.Context) error {
	res, err := a.api.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *App) logout(ctx context.Context) error {
	res, err := a.api.Logout(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *App) forgot(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, "Enter email")
	if err != nil {
		return err
	}

	res, err := a.api.RequestPasswordReset(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *App) reset(ctx context.Context, args []string) error {
	token, err := a.argOrPrompt(args, "Enter reset token")
	if err != nil {
		return err
	}

	password, err := a.newPassword()
	if err != nil {
		return err
	}

	res, err := a.api.ResetPassword(ctx, token, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	return nil
}

func (a *App) me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

// newPassword asks twice and insists both entries match.
func (a *App) newPassword() (string, error) {
	first, err := GetPassword(a.reader, "Enter new password", a.out)
	if err != nil {
		return "", err
	}
	second, err := GetPassword(a.reader, "Repeat new password", a.out)
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func (a *App) printUser(u *client.User) {
	if u == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "id:    %s\nemail: %s", u.ID, u.Email)
	if u.Name != nil {
		fmt.Fprintf(&b, "\nname:  %s", *u.Name)
	}
	fmt.Fprintln(a.out, b.String())
}
