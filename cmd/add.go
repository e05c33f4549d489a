package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"backhaul/internal/config"

	"github.com/spf13/cobra"
)

var addJobTemplate string
var addJobName string

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.AddCommand(addJobCmd)
	addJobCmd.Flags().StringVar(&addJobTemplate, "template", "", "Job template: archive, snapshot, or sync")
	addJobCmd.Flags().StringVar(&addJobName, "name", "", "Job name (required with --template)")
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a resource",
}

var addJobCmd = &cobra.Command{
	Use:   "job",
	Short: "Add a new job (interactive or template)",
	RunE:  runAddJob,
}

func runAddJob(cmd *cobra.Command, args []string) error {
	if addJobTemplate != "" {
		return runAddJobTemplate(cmd)
	}
	return runAddJobInteractive(cmd)
}

func runAddJobTemplate(cmd *cobra.Command) error {
	if addJobName == "" {
		return fmt.Errorf("--name is required when using --template")
	}
	job := config.JobTemplate(addJobTemplate, addJobName)
	if job == nil {
		return fmt.Errorf("unknown template %q (use: %s)", addJobTemplate, strings.Join(config.JobTemplateNames(), ", "))
	}
	return addJobToConfig(cmd, job)
}

func runAddJobInteractive(cmd *cobra.Command) error {
	reader := bufio.NewReader(os.Stdin)
	jobName := prompt(reader, "Job name", "my-backup")
	if jobName == "" {
		return fmt.Errorf("job name is required")
	}

	fmt.Printf("Available backends: %s\n", strings.Join(config.JobTemplateNames(), ", "))
	kind := strings.ToLower(strings.TrimSpace(prompt(reader, "Backend", "archive")))
	job := config.JobTemplate(kind, jobName)
	if job == nil {
		return fmt.Errorf("unknown backend %q", kind)
	}

	job.Source = prompt(reader, "Source path", job.Source)
	job.Destination = prompt(reader, "Destination", job.Destination)
	job.MountCheck = prompt(reader, "Mount check path (empty to skip)", job.MountCheck)
	days := prompt(reader, "Max artifact age in days", "7")
	if n, err := strconv.Atoi(days); err == nil && n > 0 {
		job.Retention = &config.RetentionConfig{MaxAgeDays: n}
	}

	return addJobToConfig(cmd, job)
}

func addJobToConfig(cmd *cobra.Command, job *config.JobConfig) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, j := range cfg.Jobs {
		if j.Name == job.Name {
			return fmt.Errorf("job %q already exists", job.Name)
		}
	}
	cfg.Jobs = append(cfg.Jobs, *job)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	path := config.ResolveConfigPath()
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	cmd.Printf("Job %q added\n", job.Name)
	return nil
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	s := strings.TrimSpace(line)
	if s == "" {
		return defaultVal
	}
	return s
}
