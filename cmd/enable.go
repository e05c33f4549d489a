package cmd

import (
	"fmt"

	"backhaul/internal/config"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(enableCmd)
	enableCmd.AddCommand(enableJobCmd)
}

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable a job",
}

var enableJobCmd = &cobra.Command{
	Use:   "job [name]",
	Short: "Enable a job by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setJobEnabled(cmd, args[0], true)
	},
}

func setJobEnabled(cmd *cobra.Command, jobName string, enabled bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	found := false
	for i := range cfg.Jobs {
		if cfg.Jobs[i].Name == jobName {
			cfg.Jobs[i].Enabled = enabled
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("job %q not found", jobName)
	}
	path := config.ResolveConfigPath()
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	if enabled {
		cmd.Printf("Job %q enabled\n", jobName)
	} else {
		cmd.Printf("Job %q disabled\n", jobName)
	}
	return nil
}
