// Package config reads pbpup settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects where the browser runs.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendKernel Backend = "kernel"
)

const (
	DefaultFindTimeout    = 5 * time.Second
	DefaultReleaseTimeout = 10 * time.Second
	DefaultKernelTimeout  = time.Hour
)

// Config is the resolved runtime configuration.
type Config struct {
	Backend  Backend
	Headless bool

	FindTimeout    time.Duration
	ReleaseTimeout time.Duration
	KernelTimeout  time.Duration

	// ConfigDir holds profiles.yaml. Empty means the user config directory.
	ConfigDir     string
	NoUpdateCheck bool
	KernelAPIKey  string
}

// ProfilesPath returns the profile store location, or "" for the default.
func (c Config) ProfilesPath() string {
	if c.ConfigDir == "" {
		return ""
	}
	return filepath.Join(c.ConfigDir, "profiles.yaml")
}

// Load applies envFiles (".env" when none are given) without overriding
// variables already set, then reads the PBPUP_* variables. Missing env
// files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Backend:        BackendLocal,
		FindTimeout:    DefaultFindTimeout,
		ReleaseTimeout: DefaultReleaseTimeout,
		KernelTimeout:  DefaultKernelTimeout,
		ConfigDir:      getenv("PBPUP_CONFIG_DIR"),
		KernelAPIKey:   getenv("KERNEL_API_KEY"),
	}

	var errs []error
	if v := getenv("PBPUP_BACKEND"); v != "" {
		switch b := Backend(strings.ToLower(v)); b {
		case BackendLocal, BackendKernel:
			cfg.Backend = b
		default:
			errs = append(errs, fmt.Errorf("PBPUP_BACKEND: unknown backend %q (want local or kernel)", v))
		}
	}

	boolVar := func(name string, dst *bool) {
		if v := getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	durationVar := func(name string, dst *time.Duration) {
		if v := getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			if d <= 0 {
				errs = append(errs, fmt.Errorf("%s: must be positive, got %s", name, v))
				return
			}
			*dst = d
		}
	}

	boolVar("PBPUP_HEADLESS", &cfg.Headless)
	boolVar("PBPUP_NO_UPDATE_CHECK", &cfg.NoUpdateCheck)
	durationVar("PBPUP_FIND_TIMEOUT", &cfg.FindTimeout)
	durationVar("PBPUP_RELEASE_TIMEOUT", &cfg.ReleaseTimeout)
	durationVar("PBPUP_KERNEL_TIMEOUT", &cfg.KernelTimeout)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
