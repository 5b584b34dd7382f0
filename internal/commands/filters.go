package commands

import (
	"flag"

	"github.com/TWRT/courier-dispatch/internal/client"
)

// taskFilterFlags are the list filters shared by tasks and export.
type taskFilterFlags struct {
	org     int64
	status  string
	kind    string
	bl      string
	courier int64
	client  int64
	from    string
	to      string
}

func (f *taskFilterFlags) register(fs *flag.FlagSet) {
	fs.Int64Var(&f.org, "org", 0, "")
	fs.StringVar(&f.status, "status", "", "")
	fs.StringVar(&f.kind, "type", "", "")
	fs.StringVar(&f.bl, "q", "", "")
	fs.Int64Var(&f.courier, "courier", 0, "")
	fs.Int64Var(&f.client, "client", 0, "")
	fs.StringVar(&f.from, "from", "", "")
	fs.StringVar(&f.to, "to", "", "")
}

func (f *taskFilterFlags) query() client.TaskQuery {
	return client.TaskQuery{
		OrganizationID: f.org,
		Status:         f.status,
		Type:           f.kind,
		Query:          f.bl,
		CourierID:      f.courier,
		ClientID:       f.client,
		ScheduledFrom:  f.from,
		ScheduledTo:    f.to,
	}
}

const filterUsage = `[--org <id>] [--status <status>] [--type <type>] [--q <bl>] [--courier <id>] [--client <id>] [--from <date>] [--to <date>]`
