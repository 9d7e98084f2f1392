package main

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/beacon/pkg/logger"
)

func registryCommand() *cli.Command {
	return &cli.Command{
		Name:  "registry",
		Usage: "serve a bare name registry",
		Flags: append(nodeFlags(":1099"),
			&cli.StringFlag{Name: "backend", Usage: "memory or redis"},
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

			reg, check, closeRegistry, err := openRegistry(c.Context, rcfg)
			if err != nil {
				return err
			}
			defer closeRegistry()

			node := newNode(ncfg, healthChecks(check)...)
			node.ServeRegistry(reg)
			addr, err := node.Listen()
			if err != nil {
				return err
			}
			slog.Default().InfoContext(c.Context, "registry serving",
				logger.Address(addr),
				slog.String("backend", rcfg.Backend),
			)

			return node.Run(c.Context)
		},
	}
}
