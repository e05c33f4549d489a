package config

func JobTemplate(name, jobName string) *JobConfig {
	switch name {
	case "archive":
		return &JobConfig{
			Name:        jobName,
			Enabled:     true,
			Backend:     "archive",
			Source:      "/var/www",
			Destination: "/mnt/backup/archives",
			MountCheck:  "/mnt/backup",
			Exclude:     []string{"*.log", "*.tmp", "cache/*"},
			Retention:   &RetentionConfig{MaxAgeDays: 7},
		}
	case "snapshot":
		return &JobConfig{
			Name:        jobName,
			Enabled:     true,
			Backend:     "snapshot",
			Source:      "/home",
			Destination: "/mnt/backup/restic-repo",
			MountCheck:  "/mnt/backup",
			Exclude:     []string{"*.cache"},
			Retention:   &RetentionConfig{KeepWithin: "168h"},
			Tag:         jobName,
		}
	case "sync":
		return &JobConfig{
			Name:        jobName,
			Enabled:     true,
			Backend:     "sync",
			Source:      "/srv/data",
			Destination: "sync/" + jobName,
			Retention:   &RetentionConfig{MaxAgeDays: 30},
		}
	default:
		return nil
	}
}

func JobTemplateNames() []string {
	return []string{"archive", "snapshot", "sync"}
}
