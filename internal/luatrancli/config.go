// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

package luatrancli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
	"go4.org/xdgdir"
)

// config is the optional project configuration loaded from a
// `.luatran.jsonc` file (import resolver module-table overrides). It is
// merged on top of the zero value; an absent file is not an error.
type config struct {
	// ImportOverrides remaps a standard-library module prefix recognized
	// by the import resolver to an alternate import line, for projects
	// whose target runtime renames or re-exports a module.
	ImportOverrides map[string]string `json:"importOverrides"`
	Strict          bool              `json:"strict"`
}

// defaultConfigPath returns the XDG config-dir location searched when no
// explicit config path is given.
func defaultConfigPath() string {
	dir := xdgdir.Config.Path()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "luatran", "config.jsonc")
}

// loadConfig reads and merges a HuJSON (JSON-with-comments) config file. A
// missing file yields the zero config, not an error.
func loadConfig(path string) (*config, error) {
	if path == "" {
		return new(config), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return new(config), nil
		}
		return nil, err
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := new(config)
	if err := json.Unmarshal(std, cfg); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return cfg, nil
}
