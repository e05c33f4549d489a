package s3

import (
	"path"
	"strings"
)

const LocksPrefix = "locks"

func LockKey(job string) string {
	return path.Join(LocksPrefix, job+".lock")
}

// SyncPrefixForJob normalizes a job's destination prefix for listing:
// cleaned, slash-separated, with a single trailing slash.
func SyncPrefixForJob(destination string) string {
	destination = strings.ReplaceAll(destination, "\\", "/")
	destination = strings.Trim(destination, "/")
	if destination == "" {
		return ""
	}
	return path.Clean(destination) + "/"
}
