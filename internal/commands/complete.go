package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/exitcode"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/session"
)

func init() {
	Register(&CompleteCmd{})
}

// CompleteCmd marks a task completed, optionally attaching photo evidence.
type CompleteCmd struct {
	note string
}

func (c *CompleteCmd) Name() string      { return "complete" }
func (c *CompleteCmd) Aliases() []string { return []string{"done"} }
func (c *CompleteCmd) Synopsis() string  { return "Complete a task with photo evidence" }
func (c *CompleteCmd) Usage() string {
	return "courierctl complete [common flags] [--note <text>] <task-id> [photo...]"
}
func (c *CompleteCmd) NeedsAuth() bool { return true }

func (c *CompleteCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.note, "note", "", "")
}

func (c *CompleteCmd) Run(ctx context.Context, cfg *session.Config, api client.DispatchAPI, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(errOut, "usage: %s\n", c.Usage())
		return exitcode.UserError
	}
	id, ok := parseTaskID(args[0], errOut)
	if !ok {
		return exitcode.UserError
	}

	paths := args[1:]
	if len(paths) == 0 {
		task, err := api.SetStatus(ctx, id, models.TaskStatusCompleted, c.note)
		if err != nil {
			return apiFailure(errOut, err)
		}
		if !cfg.Quiet {
			fmt.Fprintf(out, "task %d (%s) completed\n", task.ID, task.ReferenceBL)
		}
		return exitcode.Success
	}

	photos := make([]client.PhotoFile, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
		defer f.Close()
		photos = append(photos, client.PhotoFile{Name: p, Body: f})
	}

	uploaded, err := api.UploadPhotos(ctx, id, photos, true, c.note)
	if err != nil {
		return apiFailure(errOut, err)
	}
	if cfg.Quiet {
		return exitcode.Success
	}
	var total int64
	for _, p := range uploaded {
		total += p.SizeBytes
	}
	fmt.Fprintf(out, "task %d completed with %s (%s)\n", id,
		english.Plural(len(uploaded), "photo", "photos"), humanize.Bytes(uint64(total)))
	return exitcode.Success
}
