package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log only. Used when no
// chat channel is configured, and as a safe default in dev.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, text string) {
	n.logger.Info("notification", zap.String("text", text))
}
