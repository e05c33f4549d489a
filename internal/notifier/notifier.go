package notifier

import (
	"context"
	"time"
)

type Notifier interface {
	NotifyRun(ctx context.Context, jobName, status, artifactID string, duration time.Duration, runErr error) error
	NotifyPrune(ctx context.Context, jobName string, deleted int) error
	NotifyRestore(ctx context.Context, jobName, pointID, targetDir string) error
}
