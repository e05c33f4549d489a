package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backhaul/internal/backend"
	"backhaul/internal/config"
	"backhaul/internal/engine"
	"backhaul/internal/lock"
	"backhaul/internal/logging"
	"backhaul/internal/precheck"

	"github.com/spf13/cobra"
)

var runJob string
var runAll bool
var runQuiet bool

const runLockTTL = 30 * time.Minute

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runJob, "job", "", "Run only this job by name")
	runCmd.Flags().BoolVar(&runAll, "all", false, "Run all enabled jobs")
	runCmd.Flags().BoolVar(&runQuiet, "quiet", false, "Suppress console output; file logging stays on")
}

var runCmd = &cobra.Command{
	Use:          "run",
	Short:        "Run backup (optionally for one job or all jobs)",
	Long:         "Run backup for the given job or all enabled jobs. Use --job <name> for a single job, or --all for all enabled jobs. If neither is set, no jobs are run.",
	RunE:         runRun,
	SilenceUsage: true,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var jobs []*config.JobConfig
	if runAll {
		for i := range cfg.Jobs {
			if cfg.Jobs[i].Enabled {
				jobs = append(jobs, &cfg.Jobs[i])
			}
		}
		if len(jobs) == 0 {
			cmd.Println("No enabled jobs to run")
			return nil
		}
	} else if runJob != "" {
		jc, err := findJob(cfg, runJob)
		if err != nil {
			return err
		}
		if !jc.Enabled {
			return fmt.Errorf("job %q is disabled", runJob)
		}
		jobs = append(jobs, jc)
	} else {
		return fmt.Errorf("specify --job <name> or --all")
	}

	log, err := newLogger(cfg, runQuiet)
	if err != nil {
		return err
	}
	defer log.Close()

	notif := notifierFromConfig(cfg, func(msg string) { cmd.PrintErrln("Warning:", msg) })

	// Worst status across jobs decides the exit code. A hard failure
	// dominates a partial one.
	anyFailure := false
	anyPartial := false
	var lastErr error

	for i, jc := range jobs {
		cmd.Printf("[%d/%d] Running job %q ...\n", i+1, len(jobs), jc.Name)

		start := time.Now()
		result, err := runOneJob(ctx, cfg, jc, log)
		duration := time.Since(start)
		if err != nil {
			// Setup errors (bad config, lock contention) never produced
			// anything, so they count as full failures.
			cmd.Printf("  Failed after %s: %v\n", duration.Round(time.Second), err)
			anyFailure = true
			lastErr = err
			continue
		}

		if notif != nil {
			artifactID := ""
			if result.ArtifactProduced != nil {
				artifactID = result.ArtifactProduced.ID
			}
			_ = notif.NotifyRun(ctx, jc.Name, string(result.Status), artifactID, duration, result.Err)
		}

		switch result.Status {
		case engine.StatusSuccess:
			cmd.Printf("  OK in %s (deleted %d old artifacts)\n", duration.Round(time.Second), len(result.DeletedArtifacts))
		case engine.StatusPartialFailure:
			cmd.Printf("  Backup produced, retention failed after %s: %v\n", duration.Round(time.Second), result.Err)
			anyPartial = true
			lastErr = result.Err
		default:
			cmd.Printf("  Failed after %s: %v\n", duration.Round(time.Second), result.Err)
			anyFailure = true
			lastErr = result.Err
		}
	}

	switch {
	case anyFailure:
		return &exitCodeError{code: engine.StatusFailure.ExitCode(), err: lastErr}
	case anyPartial:
		return &exitCodeError{code: engine.StatusPartialFailure.ExitCode(), err: lastErr}
	}
	cmd.Println("All jobs completed successfully.")
	return nil
}

func runOneJob(ctx context.Context, cfg *config.Config, jc *config.JobConfig, log *logging.Logger) (engine.RunResult, error) {
	job, err := jc.ToJob()
	if err != nil {
		return engine.RunResult{}, err
	}

	adapter, err := buildAdapter(ctx, cfg, jc)
	if err != nil {
		return engine.RunResult{}, err
	}

	lockers, err := jobLockers(cfg, jc.Name, job.Kind)
	if err != nil {
		return engine.RunResult{}, err
	}
	for _, l := range lockers {
		if err := l.Acquire(ctx); err != nil {
			return engine.RunResult{}, fmt.Errorf("acquire lock: %w", err)
		}
		defer func(l lock.Locker) { _ = l.Release(context.Background()) }(l)
	}

	runner := engine.New(adapter, precheck.New(adapter), log)
	return runner.Execute(ctx, job), nil
}

// jobLockers returns the locks a job must hold for its whole run. Every job
// takes a host-local lock; sync jobs additionally take a bucket-level lock
// so two hosts never mirror into the same prefix concurrently.
func jobLockers(cfg *config.Config, name string, kind backend.Kind) ([]lock.Locker, error) {
	local, err := lock.NewLocal(lock.LocalOptions{Name: name, TTL: runLockTTL})
	if err != nil {
		return nil, err
	}
	lockers := []lock.Locker{local}

	if kind == backend.KindSync {
		client, err := newS3Client(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		remote, err := lock.NewS3(lock.S3Options{Client: client, Name: name, TTL: runLockTTL})
		if err != nil {
			return nil, err
		}
		lockers = append(lockers, remote)
	}
	return lockers, nil
}
