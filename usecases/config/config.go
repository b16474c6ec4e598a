//       _      _  __ _      _ _
//    __| |_ __(_)/ _| |_ __| | |__
//   / _` | '__| | |_| __/ _` | '_ \
//  | (_| | |  | |  _| || (_| | |_) |
//   \__,_|_|  |_|_|  \__\__,_|_.__/
//
//  Copyright © 2021 - 2026 DriftDB B.V. All rights reserved.
//
//  CONTACT: hello@driftdb.io
//

package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Config carries the client-level settings of the local store.
type Config struct {
	// InstanceID identifies this client instance in logs and metrics.
	InstanceID string `json:"instance_id" yaml:"instance_id"`

	Persistence Persistence `json:"persistence" yaml:"persistence"`
	Monitoring  Monitoring  `json:"monitoring" yaml:"monitoring"`
}

type Persistence struct {
	// RootPath is the directory the overlay store file lives in. Empty
	// selects the purely in-memory caches.
	RootPath string `json:"root_path" yaml:"root_path"`
}

type Monitoring struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// OverlayStorePath returns the path of the bolt file holding the overlay
// store; the one file holds the overlays of all users.
func (p Persistence) OverlayStorePath() string {
	return filepath.Join(p.RootPath, "overlays.db")
}

// FromEnv populates cfg from DRIFTDB_* environment variables.
func FromEnv(cfg *Config) error {
	if v := os.Getenv("DRIFTDB_INSTANCE_ID"); v != "" {
		cfg.InstanceID = v
	}
	if v := os.Getenv("DRIFTDB_PERSISTENCE_ROOT"); v != "" {
		cfg.Persistence.RootPath = v
	}
	if v := os.Getenv("DRIFTDB_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "parse DRIFTDB_METRICS_ENABLED")
		}
		cfg.Monitoring.Enabled = enabled
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	return nil
}

func (c Config) Validate() error {
	if c.InstanceID == "" {
		return errors.New("instance id must not be empty")
	}
	if c.Persistence.RootPath != "" {
		info, err := os.Stat(c.Persistence.RootPath)
		if err != nil {
			return errors.Wrapf(err, "persistence root %q", c.Persistence.RootPath)
		}
		if !info.IsDir() {
			return errors.Errorf("persistence root %q is not a directory", c.Persistence.RootPath)
		}
	}
	return nil
}
