package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/exitcode"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/session"
)

func init() {
	Register(&TasksCmd{})
}

type TasksCmd struct {
	filters taskFilterFlags
	limit   int
	offset  int
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"ls"} }
func (c *TasksCmd) Synopsis() string  { return "List tasks" }
func (c *TasksCmd) Usage() string {
	return "courierctl tasks [common flags] " + filterUsage + " [--limit <n>] [--offset <n>]"
}
func (c *TasksCmd) NeedsAuth() bool { return true }

func (c *TasksCmd) RegisterFlags(fs *flag.FlagSet) {
	c.filters.register(fs)
	fs.IntVar(&c.limit, "limit", 0, "")
	fs.IntVar(&c.offset, "offset", 0, "")
}

func (c *TasksCmd) Run(ctx context.Context, cfg *session.Config, api client.DispatchAPI, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	q := c.filters.query()
	q.Limit = c.limit
	q.Offset = c.offset

	page, err := api.ListTasks(ctx, q)
	if err != nil {
		return apiFailure(errOut, err)
	}
	if len(page.Tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks")
		}
		return exitcode.Success
	}

	FormatTasks(out, page.Tasks)
	if !cfg.Quiet && page.Total > len(page.Tasks) {
		fmt.Fprintf(out, "showing %d-%d of %d\n", page.Offset+1, page.Offset+len(page.Tasks), page.Total)
	}
	return exitcode.Success
}

// FormatTasks writes tasks as an aligned table.
func FormatTasks(w io.Writer, tasks []models.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBL\tTYPE\tSTATUS\tCLIENT\tCOURIER\tSCHEDULED")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			strconv.FormatInt(t.ID, 10),
			cell(t.ReferenceBL),
			t.Type.Label(),
			t.Status.Label(),
			cell(t.ClientName),
			cell(t.CourierName),
			cell(t.ScheduledDate),
		)
	}
	tw.Flush()
}

func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "-"
	}
	return s
}
