// Command courierctl is a terminal client for the courier dispatch API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/TWRT/courier-dispatch/internal/cli"
	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/client/courierapi"
	"github.com/TWRT/courier-dispatch/internal/commands"
)

func main() {
	log.SetPrefix("[CLI] ")
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	factory := func(baseURL, token string) client.DispatchAPI {
		return courierapi.NewCourierAPIClient(baseURL, token)
	}
	code := cli.NewDispatcher(commands.DefaultRegistry, factory).Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
