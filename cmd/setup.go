package cmd

import (
	"context"
	"fmt"

	"backhaul/internal/backend"
	"backhaul/internal/backend/archive"
	"backhaul/internal/backend/objsync"
	"backhaul/internal/backend/snapshot"
	"backhaul/internal/config"
	"backhaul/internal/logging"
	"backhaul/internal/notifier"
	"backhaul/internal/s3"
)

func loadConfig() (*config.Config, error) {
	v, err := config.Load(false)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	if cfg.S3 == nil {
		return nil, fmt.Errorf("s3 configuration is required")
	}
	return s3.New(ctx, s3.Options{
		Endpoint:           cfg.S3.Endpoint,
		Region:             cfg.S3.Region,
		AccessKey:          cfg.S3.AccessKey,
		SecretKey:          cfg.S3.SecretKey,
		Bucket:             cfg.S3.Bucket,
		Prefix:             cfg.S3.Prefix,
		InsecureSkipVerify: cfg.S3.TLS != nil && cfg.S3.TLS.InsecureSkipVerify,
	})
}

// buildAdapter resolves a job's backend into its adapter. The sync backend
// is the only one that needs a remote client; the other two work off local
// paths alone.
func buildAdapter(ctx context.Context, cfg *config.Config, jc *config.JobConfig) (backend.Adapter, error) {
	kind, ok := backend.ParseKind(jc.Backend)
	if !ok {
		return nil, config.ErrInvalidBackend
	}
	switch kind {
	case backend.KindArchive:
		var formatName string
		var level int
		if jc.Archive != nil {
			formatName = jc.Archive.Format
			level = jc.Archive.Level
		}
		format, ok := archive.ParseFormat(formatName)
		if !ok {
			return nil, fmt.Errorf("unknown archive format %q", formatName)
		}
		return archive.New(format, level), nil
	case backend.KindSnapshot:
		var opts snapshot.Options
		if cfg.Restic != nil {
			opts = snapshot.Options{
				Binary:       cfg.Restic.Binary,
				PasswordFile: cfg.Restic.PasswordFile,
				Env:          cfg.Restic.Env,
			}
		}
		return snapshot.New(opts), nil
	case backend.KindSync:
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return objsync.New(client), nil
	default:
		return nil, config.ErrInvalidBackend
	}
}

func newLogger(cfg *config.Config, quiet bool) (*logging.Logger, error) {
	path := cfg.LogFile
	if path == "" {
		path = config.DefaultLogFile
	}
	return logging.New(logging.Options{FilePath: path, Quiet: quiet})
}

// notifierFromConfig returns nil when notifications are not configured;
// callers treat a nil notifier as "skip".
func notifierFromConfig(cfg *config.Config, warn func(msg string)) notifier.Notifier {
	if cfg.Webhook == nil || !cfg.Webhook.Enabled {
		return nil
	}
	n, err := notifier.NewWebhook(cfg.Webhook)
	if err != nil {
		if warn != nil {
			warn(err.Error())
		}
		return nil
	}
	return n
}

func findJob(cfg *config.Config, name string) (*config.JobConfig, error) {
	for i := range cfg.Jobs {
		if cfg.Jobs[i].Name == name {
			return &cfg.Jobs[i], nil
		}
	}
	return nil, fmt.Errorf("job %q not found", name)
}
