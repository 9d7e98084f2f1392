package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/beacon/pkg/config"
	"github.com/dmitrymomot/beacon/pkg/httpserver"
	"github.com/dmitrymomot/beacon/pkg/logger"
	"github.com/dmitrymomot/beacon/pkg/redis"
	"github.com/dmitrymomot/beacon/pkg/transport/httprpc"
)

const envPrefix = "BEACON_"

const (
	backendMemory = "memory"
	backendRedis  = "redis"
)

type logConfig struct {
	Env    string `env:"ENV" envDefault:"development"`
	Level  string `env:"LOG_LEVEL"`
	Format string `env:"LOG_FORMAT"`
}

// nodeConfig is shared by every command: where to listen and where the registry is.
type nodeConfig struct {
	HTTP           httpserver.Config
	AdvertiseHost  string        `env:"ADVERTISE_HOST"`
	RegistryHost   string        `env:"REGISTRY_HOST" envDefault:"localhost"`
	RegistryPort   int           `env:"REGISTRY_PORT" envDefault:"1099"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"500ms"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"5s"`
}

type registryConfig struct {
	Backend  string `env:"REGISTRY_BACKEND" envDefault:"memory"`
	RedisKey string `env:"REGISTRY_REDIS_KEY" envDefault:"beacon:registry"`
	Redis    redis.Config
}

type sourceConfig struct {
	DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"2s"`
	RetryInterval   time.Duration `env:"RETRY_INTERVAL" envDefault:"0s"`
	BindAttempts    int           `env:"BIND_ATTEMPTS" envDefault:"5"`
	BindInterval    time.Duration `env:"BIND_INTERVAL" envDefault:"500ms"`
}

func loadConfig[T any](c *cli.Context, v *T) error {
	return config.Load(v, config.WithPrefix(envPrefix), config.WithEnvFiles(c.StringSlice("env-file")...))
}

func setupLogger(c *cli.Context) error {
	var cfg logConfig
	if err := loadConfig(c, &cfg); err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Format = c.String("log-format")
	}

	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "beacon"),
		logger.WithContextExtractors(httprpc.RequestIDExtractor()),
	}
	if cfg.Level != "" {
		opts = append(opts, logger.WithLevelName(cfg.Level))
	}
	if cfg.Format != "" {
		opts = append(opts, logger.WithFormat(logger.Format(cfg.Format)))
	}
	logger.SetAsDefault(logger.New(opts...))
	return nil
}

func nodeFlags(defaultAddr string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "listen address", Value: defaultAddr},
		&cli.StringFlag{Name: "advertise-host", Usage: "host other processes use to reach this one"},
		&cli.StringFlag{Name: "registry-host", Usage: "registry host"},
		&cli.IntFlag{Name: "registry-port", Usage: "registry port"},
	}
}

func loadNodeConfig(c *cli.Context) (nodeConfig, error) {
	var cfg nodeConfig
	if err := loadConfig(c, &cfg); err != nil {
		return cfg, err
	}
	if c.IsSet("addr") || cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = c.String("addr")
	}
	if c.IsSet("advertise-host") {
		cfg.AdvertiseHost = c.String("advertise-host")
	}
	if c.IsSet("registry-host") {
		cfg.RegistryHost = c.String("registry-host")
	}
	if c.IsSet("registry-port") {
		cfg.RegistryPort = c.Int("registry-port")
	}
	return cfg, nil
}

func newNode(cfg nodeConfig, checks ...func(context.Context) error) *httprpc.Node {
	return httprpc.NewNode(
		httprpc.WithServerConfig(cfg.HTTP),
		httprpc.WithAdvertiseHost(cfg.AdvertiseHost),
		httprpc.WithLogger(slog.Default()),
		httprpc.WithHealthChecks(checks...),
	)
}
