// Package messenger posts operator alerts to the messenger gateway.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

const orphanTarget = "orphaned_upload"

// FailureStore keeps notifications that could not be delivered.
type FailureStore interface {
	SaveFailure(ctx context.Context, target string, payload map[string]any, cause error, attempts int) error
}

// Config defines dependencies required by Notifier.
type Config struct {
	Logger       zerolog.Logger
	HTTPClient   *http.Client
	Endpoint     string
	Destination  string
	AdminBaseURL string
	Attempts     int
	RetryDelay   time.Duration
	Failures     FailureStore
}

// Notifier implements application.OrphanNotifier through the messenger gateway.
type Notifier struct {
	logger       zerolog.Logger
	httpClient   *http.Client
	endpoint     string
	destination  string
	adminBaseURL string
	attempts     int
	retryDelay   time.Duration
	failures     FailureStore
}

// NewNotifier constructs a Notifier.
func NewNotifier(cfg Config) *Notifier {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 3
	}
	return &Notifier{
		logger:       cfg.Logger,
		httpClient:   client,
		endpoint:     strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		destination:  strings.TrimSpace(cfg.Destination),
		adminBaseURL: strings.TrimRight(strings.TrimSpace(cfg.AdminBaseURL), "/"),
		attempts:     attempts,
		retryDelay:   cfg.RetryDelay,
		failures:     cfg.Failures,
	}
}

// NotifyOrphan sends an alert for orphan, retrying, and stores it as failed when
// every attempt fails.
func (n *Notifier) NotifyOrphan(ctx context.Context, orphan domain.OrphanedUpload) error {
	message := BuildOrphanMessage(n.adminBaseURL, orphan)
	err := n.sendWithRetry(ctx, orphan.SubmissionID, message)
	if err == nil {
		return nil
	}

	if n.failures != nil {
		payload := map[string]any{
			"orphanId":     orphan.ID,
			"submissionId": orphan.SubmissionID,
			"storeName":    orphan.StoreName,
			"fileId":       orphan.FileID,
			"fileName":     orphan.FileName,
			"viewLink":     orphan.ViewLink,
			"message":      message,
		}
		if saveErr := n.failures.SaveFailure(ctx, orphanTarget, payload, err, n.attempts); saveErr != nil {
			n.logger.Error().Err(saveErr).Msg("failed_notifications への保存に失敗")
		}
	}
	return err
}

// BuildOrphanMessage renders the operator alert text.
func BuildOrphanMessage(adminBaseURL string, orphan domain.OrphanedUpload) string {
	var builder strings.Builder
	builder.WriteString(":warning: Inspection row append failed after the photo was stored.\n")
	builder.WriteString(fmt.Sprintf("- Store: %s\n", orphan.StoreName))
	if orphan.StoreAddress != "" {
		builder.WriteString(fmt.Sprintf("- Address: %s\n", orphan.StoreAddress))
	}
	builder.WriteString(fmt.Sprintf("- Item: %s (level %d)\n", orphan.ItemType, orphan.Level))
	builder.WriteString(fmt.Sprintf("- Photo: %s (%s)\n", orphan.FileName, orphan.ViewLink))
	if orphan.Error != "" {
		builder.WriteString(fmt.Sprintf("- Error: %s\n", orphan.Error))
	}
	if adminBaseURL != "" && orphan.ID != "" {
		builder.WriteString(fmt.Sprintf("Reconcile: %s/%s\n", adminBaseURL, orphan.ID))
	}
	return builder.String()
}

func (n *Notifier) sendWithRetry(ctx context.Context, identifier, text string) error {
	var lastErr error
	for i := 0; i < n.attempts; i++ {
		if err := n.send(ctx, identifier, text); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if n.retryDelay > 0 && i < n.attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.retryDelay):
			}
		}
	}
	return lastErr
}

func (n *Notifier) send(ctx context.Context, identifier, text string) error {
	if n.endpoint == "" {
		return errors.New("messenger endpoint is not configured")
	}
	if strings.TrimSpace(identifier) == "" {
		identifier = "operators"
	}

	payload := map[string]any{
		"userId": identifier,
		"text":   text,
	}
	if n.destination != "" {
		payload["destination"] = n.destination
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("build messenger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build messenger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messenger request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("messenger returned status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	return nil
}
