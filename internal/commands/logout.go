package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/exitcode"
	"github.com/TWRT/courier-dispatch/internal/session"
)

func init() {
	Register(&LogoutCmd{})
}

type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Forget the cached session" }
func (c *LogoutCmd) Usage() string     { return "courierctl logout [common flags]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *session.Config, api client.DispatchAPI, args []string, out, errOut io.Writer) int {
	existed, err := cfg.RemoveSession()
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if cfg.Quiet {
		return exitcode.Success
	}
	if existed {
		fmt.Fprintln(out, "logged out")
	} else {
		fmt.Fprintln(out, "not logged in")
	}
	return exitcode.Success
}
