package delivery

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
)

// Announce posts the startup notice listing active sources and the polling
// cadence. Failures are logged only.
func Announce(ctx context.Context, messenger Messenger, sources []string, cadence string) {
	if err := messenger.SendText(ctx, AnnouncementText(sources, cadence), false); err != nil {
		slog.Warn("Failed to send startup announcement", "error", err)
		return
	}
	slog.Info("Startup announcement sent", "sources", len(sources))
}

func AnnouncementText(sources []string, cadence string) string {
	var b strings.Builder

	b.WriteString("🤖 <b>News relay is active!</b>\n\n")
	b.WriteString("News sources:\n")
	for _, name := range sources {
		b.WriteString("• " + html.EscapeString(name) + "\n")
	}
	b.WriteString("\n⏱ Updates <b>" + html.EscapeString(cadence) + "</b>")

	return b.String()
}

// IntervalCadence describes a fixed polling interval for the announcement.
func IntervalCadence(interval time.Duration) string {
	minutes := int(interval.Round(time.Minute) / time.Minute)
	if minutes == 1 {
		return "every minute"
	}
	if minutes > 0 {
		return fmt.Sprintf("every %d minutes", minutes)
	}
	return "every " + interval.String()
}
