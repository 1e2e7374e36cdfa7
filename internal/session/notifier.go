package session

import (
	"context"
	"log/slog"

	"collegeportal/internal/session/models"
	"collegeportal/pkg/requestcontext"
)

// Notifier delivers user-facing notifications outside the session, for
// example to logs or a push channel.
type Notifier interface {
	Notify(ctx context.Context, clientID string, n models.Notification)
}

// LogNotifier writes notifications as structured log lines.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, clientID string, note models.Notification) {
	level := slog.LevelInfo
	if note.Variant == models.VariantDestructive {
		level = slog.LevelWarn
	}
	n.logger.Log(ctx, level, "session notification",
		"client_id", clientID,
		"title", note.Title,
		"description", note.Description,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func loginSucceeded(name string) models.Notification {
	return models.Notification{Title: "Login Successful", Description: "Welcome back, " + name + "!", Variant: models.VariantDefault}
}

func loginFailed() models.Notification {
	return models.Notification{
		Title:       "Login Failed",
		Description: "Invalid email or password. Please try again.",
		Variant:     models.VariantDestructive,
	}
}

func loggedOut() models.Notification {
	return models.Notification{Title: "Logged Out", Description: "You've been successfully logged out.", Variant: models.VariantDefault}
}
