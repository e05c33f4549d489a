package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backhaul/internal/config"
	"backhaul/internal/precheck"
	"backhaul/internal/retention"

	"github.com/spf13/cobra"
)

var pruneJob string
var pruneAll bool
var pruneDryRun bool

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().StringVar(&pruneJob, "job", "", "Prune only this job by name")
	pruneCmd.Flags().BoolVar(&pruneAll, "all", false, "Prune all enabled jobs")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Show what would be deleted without deleting")
}

var pruneCmd = &cobra.Command{
	Use:          "prune",
	Short:        "Apply retention without producing a new backup",
	Long:         "Apply each job's retention policy against its existing artifacts. The newest artifact is never deleted regardless of age.",
	RunE:         runPrune,
	SilenceUsage: true,
}

func runPrune(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var jobs []*config.JobConfig
	if pruneAll {
		for i := range cfg.Jobs {
			if cfg.Jobs[i].Enabled {
				jobs = append(jobs, &cfg.Jobs[i])
			}
		}
	} else if pruneJob != "" {
		jc, err := findJob(cfg, pruneJob)
		if err != nil {
			return err
		}
		jobs = append(jobs, jc)
	} else {
		return fmt.Errorf("specify --job <name> or --all")
	}

	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer log.Close()

	notif := notifierFromConfig(cfg, func(msg string) { cmd.PrintErrln("Warning:", msg) })

	now := time.Now()
	failed := false
	for _, jc := range jobs {
		job, err := jc.ToJob()
		if err != nil {
			return err
		}

		adapter, err := buildAdapter(ctx, cfg, jc)
		if err != nil {
			return err
		}

		if _, err := precheck.New(adapter).Check(ctx, job); err != nil {
			cmd.Printf("Job %q: precheck failed: %v\n", jc.Name, err)
			failed = true
			continue
		}

		artifacts, err := adapter.ListArtifacts(ctx, job)
		if err != nil {
			cmd.Printf("Job %q: list failed: %v\n", jc.Name, err)
			failed = true
			continue
		}

		toDelete := retention.SelectForDeletion(job.Retention, artifacts, now)
		if len(toDelete) == 0 {
			cmd.Printf("Job %q: nothing to prune (%d artifacts)\n", jc.Name, len(artifacts))
			continue
		}

		deleted := 0
		for _, a := range toDelete {
			if pruneDryRun {
				cmd.Printf("Job %q: would delete %s (created %s)\n", jc.Name, a.ID, a.CreatedAt.Format(time.RFC3339))
				continue
			}
			if err := adapter.Delete(ctx, job, a); err != nil {
				cmd.Printf("Job %q: delete %s failed: %v\n", jc.Name, a.ID, err)
				log.Error("artifact deletion failed", "job", jc.Name, "id", a.ID, "error", err)
				failed = true
				continue
			}
			deleted++
			log.Info("artifact deleted", "job", jc.Name, "id", a.ID)
		}
		if !pruneDryRun {
			cmd.Printf("Job %q: deleted %d of %d selected artifacts\n", jc.Name, deleted, len(toDelete))
			if notif != nil {
				_ = notif.NotifyPrune(ctx, jc.Name, deleted)
			}
		}
	}

	if failed {
		return fmt.Errorf("one or more prune operations failed")
	}
	return nil
}
