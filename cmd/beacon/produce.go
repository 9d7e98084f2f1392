package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/producer"
	"github.com/dmitrymomot/beacon/pkg/source"
)

func clockCommand() *cli.Command {
	return &cli.Command{
		Name:  "clock",
		Usage: "publish the current time",
		Flags: append(nodeFlags(":0"),
			&cli.StringFlag{Name: "name", Value: "Clock", Usage: "source name"},
			&cli.DurationFlag{Name: "interval", Value: time.Second},
		),
		Action: func(c *cli.Context) error {
			return runSource(c, c.String("name"), func(src *source.Source[time.Time]) producer.Step {
				return producer.Clock(src, nil)
			})
		},
	}
}

func streamCommand() *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "cycle through the frame files of a directory",
		Flags: append(nodeFlags(":0"),
			&cli.StringFlag{Name: "name", Value: "Stream", Usage: "source name"},
			&cli.StringFlag{Name: "frames", Required: true, Usage: "`DIR` holding one file per frame"},
			&cli.DurationFlag{Name: "interval", Value: 100 * time.Millisecond},
			&cli.StringFlag{Name: "priority", Value: notification.Low.String()},
		),
		Action: func(c *cli.Context) error {
			prio, err := notification.ParsePriority(c.String("priority"))
			if err != nil {
				return err
			}
			frames, err := producer.LoadFrames(c.String("frames"))
			if err != nil {
				return err
			}
			return runSource(c, c.String("name"), func(src *source.Source[[]byte]) producer.Step {
				return frames.Step(src, notification.WithPriority(prio))
			})
		},
	}
}

// runSource binds a source named name, then drives it with the step built
// by newStep every --interval until the command is interrupted.
func runSource[T any](c *cli.Context, name string, newStep func(*source.Source[T]) producer.Step) error {
	ncfg, err := loadNodeConfig(c)
	if err != nil {
		return err
	}
	var scfg sourceConfig
	if err := loadConfig(c, &scfg); err != nil {
		return err
	}

	log := slog.Default().With(logger.Source(name))
	node := newNode(ncfg)
	if _, err := node.Listen(); err != nil {
		return err
	}

	src, err := source.New[T](name,
		source.WithTransport(node),
		source.WithDeliveryTimeout(scfg.DeliveryTimeout),
		source.WithRetryInterval(scfg.RetryInterval),
		source.WithConnectTimeout(ncfg.ConnectTimeout),
		source.WithLogger(log),
	)
	if err != nil {
		return err
	}
	step := newStep(src)

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error { return node.Run(ctx) })
	g.Go(func() error {
		err := bindWithRetry(ctx, scfg, func(ctx context.Context) error {
			return src.Bind(ctx, ncfg.RegistryHost, ncfg.RegistryPort)
		})
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "source running", slog.String("state", src.State().String()))
		return ignoreCanceled(producer.Loop(ctx, c.Duration("interval"), step,
			producer.WithName(name),
			producer.WithLogger(log),
		))
	})
	runErr := g.Wait()

	shutdownCtx, cancel := shutdownContext(c.Context, ncfg.ShutdownGrace)
	defer cancel()
	return errors.Join(ignoreCanceled(runErr), src.Close(shutdownCtx))
}
