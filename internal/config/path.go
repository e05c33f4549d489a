package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultConfigDir  = "/etc/backhaul"
	DefaultConfigName = "config.yaml"
	DefaultLogFile    = "/var/log/backhaul/backhaul.log"
)

const EnvConfigPath = "BACKHAUL_CONFIG"

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir, DefaultConfigName)
}

func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath()
}
