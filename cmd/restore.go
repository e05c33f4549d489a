package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"backhaul/internal/backend"
	"backhaul/internal/restore"

	"github.com/spf13/cobra"
)

var restoreJob string
var restorePoint string
var restoreTarget string
var restoreDryRun bool

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringVar(&restoreJob, "job", "", "Job name to restore from (required)")
	restoreCmd.Flags().StringVar(&restorePoint, "point", "", "Artifact name or snapshot ID to restore (required)")
	restoreCmd.Flags().StringVar(&restoreTarget, "target", "", "Target directory to restore into (required)")
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "Read the backup without writing anything")
	_ = restoreCmd.MarkFlagRequired("job")
	_ = restoreCmd.MarkFlagRequired("point")
	_ = restoreCmd.MarkFlagRequired("target")
}

var restoreCmd = &cobra.Command{
	Use:          "restore",
	Short:        "Restore from an archive or snapshot",
	RunE:         runRestore,
	SilenceUsage: true,
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jc, err := findJob(cfg, restoreJob)
	if err != nil {
		return err
	}
	kind, _ := backend.ParseKind(jc.Backend)

	switch kind {
	case backend.KindArchive:
		// Artifact IDs for this backend are file names inside the
		// destination directory.
		if filepath.Base(restorePoint) != restorePoint {
			return fmt.Errorf("invalid artifact name %q", restorePoint)
		}
		archivePath := filepath.Join(jc.Destination, restorePoint)
		if err := restore.Archive(ctx, archivePath, restoreTarget, restore.ArchiveOptions{DryRun: restoreDryRun}); err != nil {
			return err
		}
	case backend.KindSnapshot:
		if restoreDryRun {
			return fmt.Errorf("--dry-run is not supported for snapshot restores")
		}
		var opts restore.SnapshotOptions
		if cfg.Restic != nil {
			opts = restore.SnapshotOptions{
				Binary:       cfg.Restic.Binary,
				PasswordFile: cfg.Restic.PasswordFile,
				Env:          cfg.Restic.Env,
			}
		}
		if err := restore.Snapshot(ctx, jc.Destination, restorePoint, restoreTarget, opts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("restore is not supported for the %s backend; objects are browsable in the bucket directly", jc.Backend)
	}

	if notif := notifierFromConfig(cfg, nil); notif != nil {
		_ = notif.NotifyRestore(ctx, restoreJob, restorePoint, restoreTarget)
	}
	cmd.Printf("Restored %q point %s into %s\n", restoreJob, restorePoint, restoreTarget)
	return nil
}
