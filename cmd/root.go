package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backhaul",
	Short: "Backup orchestration for archive, snapshot, and sync backends",
	Long:  "Backhaul runs backup jobs against pluggable backends: compressed tar archives, restic snapshots, or S3-compatible object sync. It validates preconditions, produces the backup, and enforces retention.",
}

// exitCodeError carries a process exit code through cobra's error return.
// Schedulers distinguish "no backup produced" (1) from "backup produced,
// cleanup failed" (2).
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "run finished with errors"
}

func (e *exitCodeError) Unwrap() error { return e.err }

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			return ec.code
		}
		return 1
	}
	return 0
}
