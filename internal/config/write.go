package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func Write(cfg *Config, path string) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir %s: %w", dir, err)
	}
	// 0600: may carry credentials, see checkConfigPermissions.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Starter returns the config `backhaul init` writes: one job per template,
// disabled except the archive one, ready to edit.
func Starter() *Config {
	cfg := &Config{
		LogFile: DefaultLogFile,
		S3: &S3Config{
			Endpoint:  "https://s3.example.com",
			Bucket:    "backups",
			AccessKey: "CHANGE_ME",
			SecretKey: "CHANGE_ME",
		},
	}
	for _, name := range JobTemplateNames() {
		j := JobTemplate(name, name+"-example")
		if name != "archive" {
			j.Enabled = false
		}
		cfg.Jobs = append(cfg.Jobs, *j)
	}
	return cfg
}
