// Package config loads beacon process configuration from the environment.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: optional
// .env files are read into the process environment first, then the
// environment is parsed into a tagged struct. An optional prefix keeps the
// variables of different commands apart:
//
//	type DirectoryConfig struct {
//		Host string `env:"HOST" envDefault:"localhost"`
//		Port int    `env:"PORT" envDefault:"1099"`
//	}
//
//	var cfg DirectoryConfig
//	if err := config.Load(&cfg, config.WithPrefix("BEACON_")); err != nil {
//		return err
//	}
//
// The default .env file in the working directory is loaded once per process
// and a missing file is not an error. Files passed through WithEnvFiles must
// exist.
package config
