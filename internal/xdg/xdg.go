// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

// Package xdg provides XDG Base Directory paths for LabHub.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const appName = "labhub"

// ConfigFileName is the configuration file looked up in ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the XDG config directory for labhub.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the path of the per-user configuration file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// FindConfigFile returns ConfigFile when it exists. Permission errors are
// reported as found so the loader surfaces them instead of skipping the file.
func FindConfigFile() (string, bool) {
	path := ConfigFile()
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false
	}
	return path, true
}
