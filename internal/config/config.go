package config

import "github.com/spf13/viper"

type Config struct {
	LogFile string         `mapstructure:"log_file" yaml:"log_file"`
	S3      *S3Config      `mapstructure:"s3" yaml:"s3,omitempty"`
	Restic  *ResticConfig  `mapstructure:"restic" yaml:"restic,omitempty"`
	Webhook *WebhookConfig `mapstructure:"webhook" yaml:"webhook,omitempty"`
	Jobs    []JobConfig    `mapstructure:"jobs" yaml:"jobs"`
}

type WebhookConfig struct {
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
	URL            string   `mapstructure:"url" yaml:"url"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds,omitempty"`
	Events         []string `mapstructure:"events" yaml:"events,omitempty"`
	RetryAttempts  int      `mapstructure:"retry_attempts" yaml:"retry_attempts,omitempty"`
	RetryBackoffMs int      `mapstructure:"retry_backoff_ms" yaml:"retry_backoff_ms,omitempty"`
}

type S3Config struct {
	Endpoint  string     `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string     `mapstructure:"region" yaml:"region,omitempty"`
	AccessKey string     `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string     `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string     `mapstructure:"bucket" yaml:"bucket"`
	Prefix    string     `mapstructure:"prefix" yaml:"prefix,omitempty"`
	TLS       *TLSConfig `mapstructure:"tls" yaml:"tls,omitempty"`
}

type TLSConfig struct {
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// ResticConfig is pass-through backend configuration; the engine never
// reads repository credentials itself.
type ResticConfig struct {
	Binary       string   `mapstructure:"binary" yaml:"binary,omitempty"`
	PasswordFile string   `mapstructure:"password_file" yaml:"password_file,omitempty"`
	Env          []string `mapstructure:"env" yaml:"env,omitempty"`
}

type JobConfig struct {
	Name        string           `mapstructure:"name" yaml:"name"`
	Enabled     bool             `mapstructure:"enabled" yaml:"enabled"`
	Backend     string           `mapstructure:"backend" yaml:"backend"`
	Source      string           `mapstructure:"source" yaml:"source"`
	Destination string           `mapstructure:"destination" yaml:"destination"`
	MountCheck  string           `mapstructure:"mount_check" yaml:"mount_check,omitempty"`
	Exclude     []string         `mapstructure:"exclude" yaml:"exclude,omitempty"`
	Retention   *RetentionConfig `mapstructure:"retention" yaml:"retention,omitempty"`
	Tag         string           `mapstructure:"tag" yaml:"tag,omitempty"`
	Archive     *ArchiveConfig   `mapstructure:"archive" yaml:"archive,omitempty"`
}

// RetentionConfig holds exactly one of the two policy variants; Validate
// rejects configs that set both.
type RetentionConfig struct {
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days,omitempty"`
	KeepWithin string `mapstructure:"keep_within" yaml:"keep_within,omitempty"`
}

type ArchiveConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"`
	Level  int    `mapstructure:"level" yaml:"level,omitempty"`
}

func Unmarshal(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
