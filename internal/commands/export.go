package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/exitcode"
	"github.com/TWRT/courier-dispatch/internal/session"
)

func init() {
	Register(&ExportCmd{})
}

type ExportCmd struct {
	filters taskFilterFlags
	output  string
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Export tasks as CSV" }
func (c *ExportCmd) Usage() string {
	return "courierctl export [common flags] " + filterUsage + " [--out <file>]"
}
func (c *ExportCmd) NeedsAuth() bool { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	c.filters.register(fs)
	fs.StringVar(&c.output, "out", "", "")
}

func (c *ExportCmd) Run(ctx context.Context, cfg *session.Config, api client.DispatchAPI, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.output == "" || c.output == "-" {
		if _, err := api.ExportTasks(ctx, c.filters.query(), out); err != nil {
			return apiFailure(errOut, err)
		}
		return exitcode.Success
	}

	tmp := c.output + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	n, err := api.ExportTasks(ctx, c.filters.query(), f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		fmt.Fprintf(errOut, "error: %s\n", closeErr)
		os.Remove(tmp)
		return exitcode.UserError
	}
	if err != nil {
		os.Remove(tmp)
		return apiFailure(errOut, err)
	}
	if err := os.Rename(tmp, c.output); err != nil {
		os.Remove(tmp)
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "wrote %s to %s\n", humanize.Bytes(uint64(n)), c.output)
	}
	return exitcode.Success
}
