package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

type commandRunner interface {
	run(ctx context.Context, name string, args, env []string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args, env []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return out.Bytes(), errBuf.Bytes(), err
}

// commandError wraps a tool failure with its exit code and a stderr tail,
// enough to diagnose without re-running.
func commandError(op string, err error, stderr []byte) error {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	tail := stderrTail(stderr, 500)
	if tail == "" {
		return fmt.Errorf("%s: exit code %d: %w", op, code, err)
	}
	return fmt.Errorf("%s: exit code %d: %w: %s", op, code, err, tail)
}

func stderrTail(stderr []byte, max int) string {
	s := strings.TrimSpace(string(stderr))
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}
	return s
}

type backupSummary struct {
	MessageType         string `json:"message_type"`
	SnapshotID          string `json:"snapshot_id"`
	TotalBytesProcessed int64  `json:"total_bytes_processed"`
	FilesNew            int    `json:"files_new"`
	FilesChanged        int    `json:"files_changed"`
}

// parseBackupSummary finds the summary message in restic's line-delimited
// JSON backup output.
func parseBackupSummary(stdout []byte) (backupSummary, error) {
	sc := bufio.NewScanner(bytes.NewReader(stdout))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var last backupSummary
	found := false
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var s backupSummary
		if err := json.Unmarshal(line, &s); err != nil {
			continue
		}
		if s.MessageType == "summary" {
			last = s
			found = true
		}
	}
	if err := sc.Err(); err != nil {
		return backupSummary{}, err
	}
	if !found || last.SnapshotID == "" {
		return backupSummary{}, fmt.Errorf("no summary message in backup output")
	}
	return last, nil
}

type resticSnapshot struct {
	ID      string    `json:"id"`
	ShortID string    `json:"short_id"`
	Time    time.Time `json:"time"`
	Tags    []string  `json:"tags"`
	Paths   []string  `json:"paths"`
}

func (s resticSnapshot) id() string {
	if s.ShortID != "" {
		return s.ShortID
	}
	return s.ID
}

func parseSnapshots(stdout []byte) ([]resticSnapshot, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var snaps []resticSnapshot
	if err := json.Unmarshal(trimmed, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

func repositoryMissing(stderr []byte) bool {
	s := string(stderr)
	return strings.Contains(s, "Is there a repository at the following location") ||
		strings.Contains(s, "unable to open config file") ||
		strings.Contains(s, "repository does not exist")
}

func snapshotMissing(stderr []byte) bool {
	s := string(stderr)
	return strings.Contains(s, "no matching ID found") ||
		strings.Contains(s, "could not find a snapshot")
}
