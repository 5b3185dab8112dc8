package notifier

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"MacroMonitor/internal/model"
	"MacroMonitor/internal/recorder"
)

// maxListedIDs caps how many failed identifiers a message lists.
const maxListedIDs = 15

// FormatRunSummary formats a finished run into a Telegram message.
func FormatRunSummary(s *model.RunSummary) string {
	var b strings.Builder

	icon := "✅"
	switch {
	case s.Fetched == 0 && s.Total > 0:
		icon = "❌"
	case len(s.FailedIDs) > 0 || len(s.RendererErrors) > 0:
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s <b>MacroMonitor</b> | %s\n\n", icon, s.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Fetched: %d/%d series\n", s.Fetched, s.Total))
	b.WriteString(fmt.Sprintf("Failed: %d\n", len(s.FailedIDs)))
	writeIDs(&b, s.FailedIDs)
	b.WriteString(fmt.Sprintf("Duration: %s\n", s.Duration.Round(time.Millisecond)))

	if len(s.Outputs) > 0 {
		names := make([]string, len(s.Outputs))
		for i, o := range s.Outputs {
			names[i] = filepath.Base(o)
		}
		b.WriteString(fmt.Sprintf("Outputs: %s\n", html.EscapeString(strings.Join(names, ", "))))
	}
	if len(s.RendererErrors) > 0 {
		b.WriteString("\n<b>Renderer errors:</b>\n")
		for _, e := range s.RendererErrors {
			b.WriteString(fmt.Sprintf("  • %s\n", html.EscapeString(e)))
		}
	}
	return b.String()
}

// FormatStatus describes the most recent recorded run.
func FormatStatus(rec *recorder.RunRecord, now time.Time) string {
	if rec == nil {
		return "📦 No report has been recorded yet."
	}
	var b strings.Builder
	b.WriteString("📦 <b>Last report</b>\n\n")
	b.WriteString(fmt.Sprintf("Run: %s\n", rec.RunID))
	b.WriteString(fmt.Sprintf("Started: %s (%s)\n",
		rec.StartedAt.Format("2006-01-02 15:04"), humanize.RelTime(rec.StartedAt, now, "ago", "from now")))
	b.WriteString(fmt.Sprintf("Fetched: %d/%d series\n", rec.Fetched, rec.Total))
	b.WriteString(fmt.Sprintf("Failed: %d\n", len(rec.FailedIDs)))
	writeIDs(&b, rec.FailedIDs)
	return b.String()
}

// HelpText lists the supported commands.
func HelpText() string {
	return "Available commands:\n" +
		"• /run  generate the report now\n" +
		"• /status  show the last run\n" +
		"• /help  show this message"
}

func writeIDs(b *strings.Builder, ids []string) {
	if len(ids) == 0 {
		return
	}
	shown := ids
	if len(shown) > maxListedIDs {
		shown = shown[:maxListedIDs]
	}
	b.WriteString(fmt.Sprintf("  <code>%s</code>", html.EscapeString(strings.Join(shown, ", "))))
	if extra := len(ids) - len(shown); extra > 0 {
		b.WriteString(fmt.Sprintf(" and %d more", extra))
	}
	b.WriteString("\n")
}
