package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SlackNotifier posts messages to a Slack incoming webhook. Delivery is
// fire-and-forget: failures are logged and swallowed, never surfaced to the
// evaluation pipeline.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

func NewSlackNotifier(webhookURL string, logger *zap.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (n *SlackNotifier) Notify(ctx context.Context, text string) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		n.logger.Error("slack payload marshal failed", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		n.logger.Error("slack request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("slack delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		n.logger.Warn("slack delivery rejected", zap.Int("status", resp.StatusCode))
	}
}
