// Command beacon runs the pieces of a notification fabric: a bare registry,
// the directory, stock sources and a watching sink.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "beacon:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "beacon",
		Usage: "publish and watch notifications across processes",
		Description: `
Every setting can also come from BEACON_* environment variables or a .env
file; flags win over both.

  beacon directory --addr :1099
  beacon clock --registry-host localhost
  beacon watch --profile watch.yaml --autoconnect
`[1:],
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
			&cli.StringSliceFlag{Name: "env-file", Usage: "load variables from `FILE` before parsing"},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			registryCommand(),
			directoryCommand(),
			clockCommand(),
			streamCommand(),
			watchCommand(),
		},
	}
}
