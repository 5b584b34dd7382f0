package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/exitcode"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/session"
)

func init() {
	Register(&WhoamiCmd{})
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return []string{"me"} }
func (c *WhoamiCmd) Synopsis() string  { return "Show the logged-in user" }
func (c *WhoamiCmd) Usage() string     { return "courierctl whoami [common flags]" }
func (c *WhoamiCmd) NeedsAuth() bool   { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *session.Config, api client.DispatchAPI, args []string, out, errOut io.Writer) int {
	user, err := api.Me(ctx)
	if err != nil {
		return apiFailure(errOut, err)
	}
	fmt.Fprintf(out, "%s (%s)\n", user.Email, roleLabel(user.Role))
	if user.OrganizationID != nil {
		fmt.Fprintf(out, "organization: %d\n", *user.OrganizationID)
	}
	if user.CourierID != nil {
		fmt.Fprintf(out, "courier: %d\n", *user.CourierID)
	}
	if s, err := cfg.LoadSession(); err == nil && !cfg.Quiet && !s.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "session expires %s\n", humanize.RelTime(s.ExpiresAt, cfg.Now(), "ago", "from now"))
	}
	return exitcode.Success
}

func roleLabel(r models.Role) string {
	return models.Label(string(r))
}
