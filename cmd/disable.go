package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(disableCmd)
	disableCmd.AddCommand(disableJobCmd)
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable a job",
}

var disableJobCmd = &cobra.Command{
	Use:   "job [name]",
	Short: "Disable a job by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setJobEnabled(cmd, args[0], false)
	},
}
