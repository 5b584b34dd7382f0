// Package cli parses courierctl arguments and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/commands"
	"github.com/TWRT/courier-dispatch/internal/exitcode"
	"github.com/TWRT/courier-dispatch/internal/session"
)

// APIFactory builds the API client for a resolved server and token. token is
// empty when no session is cached.
type APIFactory func(baseURL, token string) client.DispatchAPI

type Dispatcher struct {
	registry *commands.Registry
	factory  APIFactory
}

func NewDispatcher(registry *commands.Registry, factory APIFactory) *Dispatcher {
	return &Dispatcher{registry: registry, factory: factory}
}

// Run parses args, dispatches and returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return d.dispatch(ctx, "help", nil, out, errOut)
	}

	name := args[0]
	if strings.HasPrefix(name, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	return d.dispatch(ctx, name, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configDir, server string
	var quiet bool
	fs.StringVar(&configDir, "config", "", "")
	fs.StringVar(&server, "server", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") && positional[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return exitcode.UserError
	}

	cfg := session.New(configDir)
	cfg.Server = server
	cfg.Quiet = quiet

	sess, err := cfg.LoadSession()
	switch {
	case err == nil:
	case cmd.NeedsAuth() && errors.Is(err, session.ErrNoSession):
		fmt.Fprintln(errOut, "error: not logged in (run: courierctl login)")
		return exitcode.AuthError
	case cmd.NeedsAuth():
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	default:
		// login and logout replace or remove whatever is on disk.
		sess = session.Session{}
	}

	cfg.Server = cfg.ResolveServer(sess)
	var api client.DispatchAPI
	if d.factory != nil {
		api = d.factory(cfg.Server, sess.Token)
	}
	return cmd.Run(ctx, cfg, api, positional, out, errOut)
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	msg := err.Error()
	if name, ok := strings.CutPrefix(msg, "flag provided but not defined: "); ok {
		return "unknown flag: " + name
	}
	return msg
}
