package cmd

import (
	"fmt"
	"os"

	"backhaul/internal/config"

	"github.com/spf13/cobra"
)

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long:  "Write a starter configuration with one example job per backend. Only the archive job is enabled; edit credentials and paths before enabling the rest.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.ResolveConfigPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.Starter()
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	cmd.Printf("Wrote starter configuration to %s\n", path)
	cmd.Println("Edit the S3 credentials and job paths, then run `backhaul validate`.")
	return nil
}
