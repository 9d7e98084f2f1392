package main

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/lookup"
	"github.com/dmitrymomot/beacon/pkg/notification"
	"github.com/dmitrymomot/beacon/pkg/profile"
	"github.com/dmitrymomot/beacon/pkg/sink"
)

const maxLoggedPayload = 128

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "subscribe to sources and log what they publish",
		Flags: append(nodeFlags(":0"),
			&cli.StringFlag{Name: "profile", Value: "beacon-watch.yaml", Usage: "`FILE` keeping the sink id and sources"},
			&cli.StringSliceFlag{Name: "source", Usage: "source `NAME` to connect to; remembered in the profile"},
			&cli.BoolFlag{Name: "autoconnect", Usage: "connect to every source the directory lists"},
		),
		Action: func(c *cli.Context) error {
			ncfg, err := loadNodeConfig(c)
			if err != nil {
				return err
			}

			path := c.String("profile")
			p, created, err := profile.LoadOrCreate(path)
			if err != nil {
				return err
			}
			if c.IsSet("registry-host") {
				p.Host = ncfg.RegistryHost
			}
			if c.IsSet("registry-port") {
				p.Port = ncfg.RegistryPort
			}
			if c.IsSet("autoconnect") {
				p.Autoconnect = c.Bool("autoconnect")
			}
			for _, name := range c.StringSlice("source") {
				p.AddSource(name)
			}
			if err := profile.Save(path, p); err != nil {
				return err
			}

			log := slog.Default()
			log.InfoContext(c.Context, "profile loaded",
				slog.String("path", path),
				slog.Bool("created", created),
				logger.SubscriberID(p.ID),
			)

			node := newNode(ncfg)
			if _, err := node.Listen(); err != nil {
				return err
			}
			s := sink.New(
				sink.WithID(p.ID),
				sink.WithTransport(node),
				sink.WithConnectTimeout(ncfg.ConnectTimeout),
				sink.WithLogger(log),
			)

			g, ctx := errgroup.WithContext(c.Context)
			g.Go(func() error { return node.Run(ctx) })
			g.Go(func() error { return watch(ctx, s, p, log) })
			runErr := g.Wait()

			shutdownCtx, cancel := shutdownContext(c.Context, ncfg.ShutdownGrace)
			defer cancel()
			return errors.Join(ignoreCanceled(runErr), s.Close(shutdownCtx))
		},
	}
}

func watch(ctx context.Context, s *sink.Sink, p profile.Profile, log *slog.Logger) error {
	if err := s.ConnectDirectory(ctx, p.Host, p.Port); err != nil {
		log.WarnContext(ctx, "directory unavailable, using the registry only", logger.Error(err))
		if err := s.ConnectRegistry(ctx, p.Host, p.Port); err != nil {
			return err
		}
	}

	cb := printer(log)
	for _, name := range p.Sources {
		connect(ctx, s, name, cb, log)
	}

	if !p.Autoconnect || !s.IsConnectedDirectory() {
		<-ctx.Done()
		return nil
	}
	for listing := range s.Watch(ctx) {
		for _, e := range listing {
			if !s.IsConnectedSource(e.Name) {
				connect(ctx, s, e.Name, cb, log)
			}
		}
	}
	return nil
}

func connect(ctx context.Context, s *sink.Sink, name string, cb sink.Callback, log *slog.Logger) {
	if name == lookup.DirectoryName {
		return
	}
	if err := s.ConnectSource(ctx, name, cb); err != nil {
		log.WarnContext(ctx, "cannot connect to source", logger.Source(name), logger.Error(err))
		return
	}
	log.InfoContext(ctx, "connected to source", logger.Source(name))
}

func printer(log *slog.Logger) sink.Callback {
	return func(ctx context.Context, env notification.Envelope) error {
		attrs := []any{
			logger.Origin(env.Origin()),
			logger.Priority(env.Priority()),
			slog.Time("created_at", env.CreatedAt()),
			slog.Int("bytes", len(env.Payload())),
		}
		if payload := env.Payload(); len(payload) <= maxLoggedPayload && utf8.Valid(payload) {
			attrs = append(attrs, slog.String("payload", string(payload)))
		}
		log.InfoContext(ctx, "notification", attrs...)
		return nil
	}
}
