package restore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type SnapshotOptions struct {
	Binary       string
	PasswordFile string
	Env          []string
}

// Snapshot restores a restic snapshot into targetDir. snapshotID may be a
// short id or "latest".
func Snapshot(ctx context.Context, repo, snapshotID, targetDir string, opts SnapshotOptions) error {
	bin := opts.Binary
	if bin == "" {
		bin = "restic"
	}
	args := []string{"-r", repo}
	if opts.PasswordFile != "" {
		args = append(args, "--password-file", opts.PasswordFile)
	}
	args = append(args, "restore", snapshotID, "--target", targetDir)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), opts.Env...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if len(msg) > 500 {
			msg = msg[len(msg)-500:]
		}
		return fmt.Errorf("restic restore %s: %w: %s", snapshotID, err, msg)
	}
	return nil
}
