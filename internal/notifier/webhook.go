package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"backhaul/internal/config"
)

// WebhookNotifier posts one JSON document per event to a configured URL.
// Delivery is best effort: callers ignore errors so a dead endpoint never
// fails a backup run.
type WebhookNotifier struct {
	url      string
	attempts int
	backoff  time.Duration
	events   map[string]struct{}
	host     string
	client   *http.Client
}

type webhookPayload struct {
	Event     string `json:"event"`
	Host      string `json:"host"`
	Job       string `json:"job"`
	Status    string `json:"status,omitempty"`
	Artifact  string `json:"artifact,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Deleted   int    `json:"deleted,omitempty"`
	Point     string `json:"point,omitempty"`
	Target    string `json:"target,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func NewWebhook(cfg *config.WebhookConfig) (*WebhookNotifier, error) {
	if cfg == nil || !cfg.Enabled || cfg.URL == "" {
		return nil, fmt.Errorf("webhook notifier disabled or missing url")
	}
	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	attempts := 1
	if cfg.RetryAttempts > 1 {
		attempts = cfg.RetryAttempts
	}
	events := make(map[string]struct{})
	for _, e := range cfg.Events {
		events[e] = struct{}{}
	}
	return &WebhookNotifier{
		url:      cfg.URL,
		attempts: attempts,
		backoff:  time.Duration(cfg.RetryBackoffMs) * time.Millisecond,
		events:   events,
		host:     host,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (w *WebhookNotifier) allowed(event string) bool {
	if len(w.events) == 0 {
		return true
	}
	_, ok := w.events[event]
	return ok
}

func (w *WebhookNotifier) send(ctx context.Context, p webhookPayload) error {
	p.Timestamp = time.Now().UTC().Format(time.RFC3339)
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	for i := 0; i < w.attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := w.client.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = resp.Body.Close()
			return nil
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		if w.backoff > 0 && i < w.attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.backoff):
			}
		}
	}
	return fmt.Errorf("webhook failed after %d attempts", w.attempts)
}

func (w *WebhookNotifier) NotifyRun(ctx context.Context, jobName, status, artifactID string, duration time.Duration, runErr error) error {
	if !w.allowed("run") {
		return nil
	}
	p := webhookPayload{
		Event:    "run",
		Host:     w.host,
		Job:      jobName,
		Status:   status,
		Artifact: artifactID,
		Duration: duration.Round(time.Second).String(),
	}
	if runErr != nil {
		p.Error = runErr.Error()
	}
	return w.send(ctx, p)
}

func (w *WebhookNotifier) NotifyPrune(ctx context.Context, jobName string, deleted int) error {
	if !w.allowed("prune") {
		return nil
	}
	return w.send(ctx, webhookPayload{Event: "prune", Host: w.host, Job: jobName, Deleted: deleted})
}

func (w *WebhookNotifier) NotifyRestore(ctx context.Context, jobName, pointID, targetDir string) error {
	if !w.allowed("restore") {
		return nil
	}
	return w.send(ctx, webhookPayload{Event: "restore", Host: w.host, Job: jobName, Point: pointID, Target: targetDir})
}
