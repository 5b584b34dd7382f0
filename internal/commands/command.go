// Package commands implements the courierctl commands.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/client/courierapi"
	"github.com/TWRT/courier-dispatch/internal/exitcode"
	"github.com/TWRT/courier-dispatch/internal/session"
)

// Command is one courierctl subcommand.
type Command interface {
	Name() string
	Aliases() []string
	Synopsis() string
	Usage() string

	// NeedsAuth reports whether the command requires a cached session.
	NeedsAuth() bool

	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command and returns the exit code. api is built from
	// the resolved server and, when a session exists, its token.
	Run(ctx context.Context, cfg *session.Config, api client.DispatchAPI, args []string, out, errOut io.Writer) int
}

// apiFailure reports err and maps it to an exit code.
func apiFailure(errOut io.Writer, err error) int {
	var apiErr *courierapi.APIError
	switch {
	case courierapi.IsUnauthorized(err):
		fmt.Fprintf(errOut, "error: %s (run: courierctl login)\n", err)
		return exitcode.AuthError
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		fmt.Fprintf(errOut, "error: %s\n", apiErr.Message)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		return exitcode.BackendError
	}
}
