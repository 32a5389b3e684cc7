// Package config loads squeel settings from .squeel.yaml, SQUEEL_*
// environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/babysqueel/query/arel"
	"github.com/satishbabariya/babysqueel/squeel"
)

// AppFs is the filesystem configuration is read from.
var AppFs = afero.NewOsFs()

// Config holds the application configuration.
type Config struct {
	SchemaPath       string
	Dialect          string
	DatabaseURL      string
	Compat           bool
	StrictAttributes bool
	Debug            bool
}

// Load reads the configuration for the working directory.
func Load() (*Config, error) {
	return LoadFrom(AppFs, ".")
}

// LoadFrom reads the configuration for dir from fs. Settings come from, in
// increasing priority: defaults, .squeel.yaml (dir, then the home
// directory) and SQUEEL_* variables, which .env and .env.local may set.
func LoadFrom(fs afero.Fs, dir string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(".squeel")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "squeel"))
	}

	v.SetEnvPrefix("SQUEEL")
	v.AutomaticEnv()

	v.SetDefault("schema_path", "schema.prisma")
	v.SetDefault("dialect", "postgresql")
	v.SetDefault("compat", false)
	v.SetDefault("strict_attributes", false)
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// .env never overrides the environment; .env.local overrides both.
	if err := loadEnvFile(fs, filepath.Join(dir, ".env"), false); err != nil {
		return nil, err
	}
	if err := loadEnvFile(fs, filepath.Join(dir, ".env.local"), true); err != nil {
		return nil, err
	}

	cfg := &Config{
		SchemaPath:       v.GetString("schema_path"),
		Dialect:          v.GetString("dialect"),
		DatabaseURL:      v.GetString("database_url"),
		Compat:           v.GetBool("compat"),
		StrictAttributes: v.GetBool("strict_attributes"),
		Debug:            v.GetBool("debug"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

func loadEnvFile(fs afero.Fs, path string, overload bool) error {
	f, err := fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for k, val := range env {
		if _, set := os.LookupEnv(k); set && !overload {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}

// SQLDialect returns the dialect named by Dialect.
func (c *Config) SQLDialect() arel.Dialect {
	return arel.DialectFor(c.Dialect)
}

// DSLOptions returns the squeel options the configuration asks for.
func (c *Config) DSLOptions() []squeel.Option {
	var opts []squeel.Option
	if c.Compat {
		opts = append(opts, squeel.WithCompat())
	}
	if c.StrictAttributes {
		opts = append(opts, squeel.WithStrictAttributes())
	}
	return opts
}
