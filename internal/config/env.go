package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override the file config.
const (
	EnvBaseURL     = "MEPSONX_BASE_URL"
	EnvUserAgent   = "MEPSONX_USER_AGENT"
	EnvDelay       = "MEPSONX_DELAY"
	EnvTimeout     = "MEPSONX_TIMEOUT"
	EnvConcurrency = "MEPSONX_CONCURRENCY"
	EnvDB          = "MEPSONX_DB"
)

// LoadDotEnv loads variables from the given .env files (".env" when none
// are named) into the process environment. Variables that are already set
// win. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with MEPSONX_* variables. lookup is usually
// os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		cfg.Scrape.BaseURL = v
	}
	if v, ok := lookup(EnvUserAgent); ok && v != "" {
		cfg.Scrape.UserAgent = v
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		cfg.Data.DB = v
	}
	if v, ok := lookup(EnvDelay); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDelay, err)
		}
		cfg.Scrape.Delay = d
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Scrape.Timeout = d
	}
	if v, ok := lookup(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer, got %q", EnvConcurrency, v)
		}
		cfg.Scrape.Concurrency = n
	}
	return nil
}
