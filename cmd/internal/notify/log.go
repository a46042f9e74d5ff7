package notify

import (
	"context"
	"log/slog"
)

// LogNotifier logs activation codes instead of sending them.
// It exists for local development; production config rejects it.
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier returns a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) SendCode(ctx context.Context, phone, code string) error {
	n.Logger.LogAttrs(ctx, slog.LevelWarn, "notify.log.code",
		slog.String("phone", phone),
		slog.String("code", code),
		slog.String("note", "dry-run notifier; code not delivered"),
	)
	return nil
}
