package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var listJob string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listJob, "job", "", "Job name to list artifacts for (required)")
	_ = listCmd.MarkFlagRequired("job")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List artifacts produced for a job",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jc, err := findJob(cfg, listJob)
	if err != nil {
		return err
	}
	job, err := jc.ToJob()
	if err != nil {
		return err
	}

	adapter, err := buildAdapter(ctx, cfg, jc)
	if err != nil {
		return err
	}

	artifacts, err := adapter.ListArtifacts(ctx, job)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		cmd.Printf("No artifacts for job %q\n", listJob)
		return nil
	}

	cmd.Printf("%-50s %-20s %12s  %s\n", "ID", "CREATED", "SIZE", "TAG")
	for _, a := range artifacts {
		cmd.Printf("%-50s %-20s %12s  %s\n",
			a.ID,
			a.CreatedAt.Local().Format(time.DateTime),
			humanSize(a.SizeBytes),
			a.Tag,
		)
	}
	cmd.Printf("%d artifacts\n", len(artifacts))
	return nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
