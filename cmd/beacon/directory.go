package main

import (
	"errors"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/beacon/pkg/directory"
	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/source"
)

func directoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "directory",
		Usage: "serve the registry together with the directory of running sources",
		Flags: append(nodeFlags(":1099"),
			&cli.StringFlag{Name: "backend", Usage: "memory or redis"},
			&cli.BoolFlag{Name: "adopt", Usage: "list sources that bound themselves directly", Value: true},
		),
		Action: func(c *cli.Context) error {
			ncfg, err := loadNodeConfig(c)
			if err != nil {
				return err
			}
			var rcfg registryConfig
			if err := loadConfig(c, &rcfg); err != nil {
				return err
			}
			if c.IsSet("backend") {
				rcfg.Backend = c.String("backend")
			}
			var scfg sourceConfig
			if err := loadConfig(c, &scfg); err != nil {
				return err
			}

			reg, check, closeRegistry, err := openRegistry(c.Context, rcfg)
			if err != nil {
				return err
			}
			defer closeRegistry()

			log := slog.Default()
			node := newNode(ncfg, healthChecks(check)...)
			node.ServeRegistry(reg)
			addr, err := node.Listen()
			if err != nil {
				return err
			}

			dir, err := directory.New(reg,
				directory.WithTransport(node),
				directory.WithLogger(log),
				directory.WithSourceOptions(
					source.WithDeliveryTimeout(scfg.DeliveryTimeout),
					source.WithRetryInterval(scfg.RetryInterval),
				),
			)
			if err != nil {
				return err
			}
			if err := dir.Bind(c.Context); err != nil {
				return errors.Join(err, dir.Close(c.Context))
			}
			if c.Bool("adopt") {
				if _, err := dir.Adopt(c.Context); err != nil {
					log.WarnContext(c.Context, "adoption failed", logger.Error(err))
				}
			}
			log.InfoContext(c.Context, "directory serving", logger.Address(addr), slog.String("backend", rcfg.Backend))

			runErr := node.Run(c.Context)

			ctx, cancel := shutdownContext(c.Context, ncfg.ShutdownGrace)
			defer cancel()
			return errors.Join(runErr, dir.Close(ctx))
		},
	}
}
