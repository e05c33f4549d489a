package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"backhaul/internal/config"
	"backhaul/internal/lock"
	"backhaul/internal/s3"
)

type CheckResult struct {
	Name   string
	OK     bool
	Detail string
}

// Run performs read-only diagnostics. Per-job precondition checks live in
// the precheck package and run via JobCheck so the run path and the doctor
// report the same failures.
func Run(ctx context.Context, cfg *config.Config, jobCheck func(ctx context.Context, jc *config.JobConfig) error) []CheckResult {
	var results []CheckResult

	results = append(results, CheckResult{
		Name:   "config",
		OK:     cfg != nil,
		Detail: "configuration loaded",
	})

	ok, detail := checkLogFile(cfg)
	results = append(results, CheckResult{Name: "log file", OK: ok, Detail: detail})

	if cfg != nil && cfg.S3 != nil {
		ok, detail := checkS3(ctx, cfg)
		results = append(results, CheckResult{Name: "s3", OK: ok, Detail: detail})
	}

	ok, detail = checkLocalLock()
	results = append(results, CheckResult{Name: "local lock", OK: ok, Detail: detail})

	ok, detail = checkDisk()
	results = append(results, CheckResult{Name: "disk", OK: ok, Detail: detail})

	if cfg != nil && jobCheck != nil {
		for i := range cfg.Jobs {
			jc := &cfg.Jobs[i]
			name := fmt.Sprintf("job %s", jc.Name)
			if !jc.Enabled {
				results = append(results, CheckResult{Name: name, OK: true, Detail: "disabled, skipped"})
				continue
			}
			if err := jobCheck(ctx, jc); err != nil {
				results = append(results, CheckResult{Name: name, OK: false, Detail: err.Error()})
				continue
			}
			results = append(results, CheckResult{Name: name, OK: true, Detail: fmt.Sprintf("%s backend preconditions met", jc.Backend)})
		}
	}

	return results
}

func checkLogFile(cfg *config.Config) (bool, string) {
	path := config.DefaultLogFile
	if cfg != nil && cfg.LogFile != "" {
		path = cfg.LogFile
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Sprintf("log dir not creatable: %v", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return false, fmt.Sprintf("log file not appendable: %v", err)
	}
	_ = f.Close()
	return true, fmt.Sprintf("log file appendable (%s)", path)
}

func checkS3(ctx context.Context, cfg *config.Config) (bool, string) {
	client, err := s3.New(ctx, s3.Options{
		Endpoint:           cfg.S3.Endpoint,
		Region:             cfg.S3.Region,
		AccessKey:          cfg.S3.AccessKey,
		SecretKey:          cfg.S3.SecretKey,
		Bucket:             cfg.S3.Bucket,
		Prefix:             cfg.S3.Prefix,
		InsecureSkipVerify: cfg.S3.TLS != nil && cfg.S3.TLS.InsecureSkipVerify,
	})
	if err != nil {
		return false, fmt.Sprintf("s3 client init failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = client.ListObjects(ctx, "", 1)
	if err != nil {
		return false, fmt.Sprintf("s3 list failed: %v", err)
	}
	return true, fmt.Sprintf("s3 OK (bucket=%s, prefix=%s)", cfg.S3.Bucket, cfg.S3.Prefix)
}

func checkLocalLock() (bool, string) {
	l, err := lock.NewLocal(lock.LocalOptions{Name: "doctor"})
	if err != nil {
		return false, fmt.Sprintf("local lock init failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Acquire(ctx); err != nil {
		return false, fmt.Sprintf("local lock acquire failed: %v", err)
	}
	if err := l.Release(context.Background()); err != nil {
		return false, fmt.Sprintf("local lock release failed: %v", err)
	}
	return true, fmt.Sprintf("local lock dir accessible (%s)", lock.DefaultLockDir)
}

func checkDisk() (bool, string) {
	dir := os.TempDir()
	f, err := os.CreateTemp(dir, "backhaul-doctor-*")
	if err != nil {
		return false, fmt.Sprintf("create temp file failed in %s: %v", dir, err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString("test"); err != nil {
		_ = f.Close()
		return false, fmt.Sprintf("write temp file failed: %v", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Sprintf("close temp file failed: %v", err)
	}
	return true, fmt.Sprintf("temp dir writable (%s)", dir)
}
