package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/timur-mustafin/gamified-task-manager/internal/domain"
	"github.com/timur-mustafin/gamified-task-manager/pkg/retry"
)

// webhookSink POSTs each notification to a configured URL, for teams that
// bridge their inbox into chat. Transient HTTP failures are retried with
// backoff; a sink that still fails is tolerated upstream.
type webhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a sink posting to url.
func NewWebhookSink(url string) Sink {
	return &webhookSink{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *webhookSink) Name() string { return "webhook" }

// webhookPayload is the JSON body posted to the configured URL.
type webhookPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
}

func (s *webhookSink) Deliver(ctx context.Context, user *domain.User, n *domain.Notification) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "sink.webhook")
	defer span.End()
	span.SetAttributes(attribute.String("webhook.url", s.url))

	body, err := json.Marshal(webhookPayload{
		UserID:   user.ID,
		Username: user.Username,
		Title:    n.Title,
		Message:  n.Message,
		Type:     string(n.Type),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal payload failed")
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	err = retry.Do(ctx, retry.Config{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}, func() error {
		return s.post(ctx, body)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http call failed")
		return err
	}
	return nil
}

func (s *webhookSink) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook call to %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook %s returned status %d", s.url, resp.StatusCode)
	}
	return nil
}
