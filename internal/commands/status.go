package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/exitcode"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/session"
)

func init() {
	Register(&StatusCmd{})
}

type StatusCmd struct {
	note string
}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return nil }
func (c *StatusCmd) Synopsis() string  { return "Set a task's status" }
func (c *StatusCmd) Usage() string {
	return "courierctl status [common flags] [--note <text>] <task-id> <status>"
}
func (c *StatusCmd) NeedsAuth() bool { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.note, "note", "", "")
}

func (c *StatusCmd) Run(ctx context.Context, cfg *session.Config, api client.DispatchAPI, args []string, out, errOut io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintf(errOut, "usage: %s\n", c.Usage())
		return exitcode.UserError
	}
	id, ok := parseTaskID(args[0], errOut)
	if !ok {
		return exitcode.UserError
	}
	status := models.TaskStatus(args[1])
	if !status.Valid() {
		fmt.Fprintf(errOut, "error: unknown status: %s\n", args[1])
		return exitcode.UserError
	}

	task, err := api.SetStatus(ctx, id, status, c.note)
	if err != nil {
		return apiFailure(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "task %d (%s) is now %s\n", task.ID, task.ReferenceBL, task.Status.Label())
	}
	return exitcode.Success
}

func parseTaskID(raw string, errOut io.Writer) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(errOut, "error: invalid task id: %s\n", raw)
		return 0, false
	}
	return id, true
}
