package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// Slack posts the report text to an incoming webhook.
type Slack struct {
	webhookURL string
	logger     *slog.Logger
}

// NewSlack builds a Slack notifier.
func NewSlack(webhookURL string, logger *slog.Logger) *Slack {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slack{webhookURL: webhookURL, logger: logger}
}

func (s *Slack) Name() string { return "slack" }

// Send posts the rendered report.
func (s *Slack) Send(ctx context.Context, rep *protocol.Report) error {
	msg := &slack.WebhookMessage{Text: RenderText(rep)}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("notify: slack: %w", err)
	}
	return nil
}
