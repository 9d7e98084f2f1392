package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Option configures a single Load call.
type Option func(*options)

type options struct {
	prefix   string
	envFiles []string
	environ  map[string]string
}

// WithPrefix requires every tagged variable to carry prefix, e.g. "BEACON_".
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvFiles loads the given .env files before parsing. Earlier files win
// over later ones and none of them override variables already set.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) { o.envFiles = append(o.envFiles, paths...) }
}

// WithEnviron parses from the given map instead of the process environment.
func WithEnviron(environ map[string]string) Option {
	return func(o *options) { o.environ = environ }
}

// LoadEnv loads .env files into the process environment.
// With no paths it loads .env from the working directory.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses the environment into v according to its env struct tags.
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	defaultEnvLoaded.Do(func() {
		// The default .env file is optional.
		_ = godotenv.Load()
	})

	if len(o.envFiles) > 0 {
		if err := LoadEnv(o.envFiles...); err != nil {
			return err
		}
	}

	if err := env.ParseWithOptions(v, env.Options{
		Prefix:      o.prefix,
		Environment: o.environ,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
