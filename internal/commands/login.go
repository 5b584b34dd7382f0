package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/exitcode"
	"github.com/TWRT/courier-dispatch/internal/session"
)

// PasswordEnv supplies the login password when --password is not given.
const PasswordEnv = "COURIERCTL_PASSWORD"

func init() {
	Register(&LoginCmd{})
}

type LoginCmd struct {
	email    string
	password string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in and cache the session" }
func (c *LoginCmd) Usage() string {
	return "courierctl login [common flags] --email <email> [--password <password>]"
}
func (c *LoginCmd) NeedsAuth() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *session.Config, api client.DispatchAPI, args []string, out, errOut io.Writer) int {
	email := strings.TrimSpace(c.email)
	if email == "" && len(args) > 0 {
		email = args[0]
	}
	password := c.password
	if password == "" {
		password = os.Getenv(PasswordEnv)
	}
	if email == "" || password == "" {
		fmt.Fprintf(errOut, "error: email and password are required (--password or %s)\n", PasswordEnv)
		return exitcode.UserError
	}

	result, err := api.Login(ctx, email, password)
	if err != nil {
		if code := apiFailure(io.Discard, err); code == exitcode.AuthError {
			fmt.Fprintln(errOut, "error: invalid email or password")
			return exitcode.AuthError
		}
		return apiFailure(errOut, err)
	}

	err = cfg.SaveSession(session.Session{
		BaseURL:   cfg.Server,
		Token:     result.AccessToken,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s (%s)\n", result.User.Email, roleLabel(result.User.Role))
	}
	return exitcode.Success
}
