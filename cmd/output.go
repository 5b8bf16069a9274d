package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vidsnatch/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	labelStyle = lipgloss.NewStyle().Bold(true)
)

func render(style lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

func printSuccess(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(okStyle, "✓ "+fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(errorStyle, "✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, render(warnStyle, "⚠ "+fmt.Sprintf(format, args...)))
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", render(labelStyle, label+":"), value)
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case string(types.JobStatusCompleted):
		return okStyle
	case string(types.JobStatusFailed), string(types.JobStatusError), string(types.HistoryFailed):
		return errorStyle
	case string(types.JobStatusCancelled):
		return mutedStyle
	}
	return warnStyle
}

// padCell trims or pads s to exactly width display columns
func padCell(s string, width int) string {
	if lipgloss.Width(s) > width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r)) > width-1 {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}

func printDownloads(w io.Writer, downloads []types.DownloadEntry) {
	if len(downloads) == 0 {
		fmt.Fprintln(w, render(mutedStyle, "no downloads"))
		return
	}
	fmt.Fprintln(w, render(titleStyle, padCell("ID", 38)+padCell("STATUS", 13)+padCell("PCT", 6)+"TITLE"))
	for _, d := range downloads {
		status := padCell(string(d.Status), 13)
		fmt.Fprintf(w, "%s%s%s%s\n",
			padCell(d.ID, 38),
			render(statusStyle(string(d.Status)), status),
			padCell(fmt.Sprintf("%.0f%%", d.Percent), 6),
			padCell(defaultIfEmpty(d.Title, d.URL), 60),
		)
		if d.Error != "" {
			fmt.Fprintln(w, render(mutedStyle, "  "+d.Error))
		}
	}
}

func printProgress(w io.Writer, p types.ProgressResponse) {
	fmt.Fprintln(w, render(titleStyle, defaultIfEmpty(p.Title, p.URL)))
	printField(w, "ID", p.ID)
	printField(w, "URL", p.URL)
	printField(w, "Status", render(statusStyle(string(p.Status)), string(p.Status)))
	printField(w, "Progress", fmt.Sprintf("%.1f%%", p.Percent))
	if p.Speed != "" {
		printField(w, "Speed", p.Speed)
	}
	if p.ETA != "" {
		printField(w, "ETA", p.ETA)
	}
	if p.Queued {
		printField(w, "Queued", "waiting for a free download slot")
	}
	if p.RetryCount > 0 {
		printField(w, "Retries", fmt.Sprint(p.RetryCount))
	}
	if p.Error != "" {
		printField(w, "Error", render(errorStyle, p.Error))
	}
}

func printHistory(w io.Writer, entries []types.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, render(mutedStyle, "history is empty"))
		return
	}
	fmt.Fprintln(w, render(titleStyle, padCell("ADDED", 18)+padCell("STATUS", 13)+padCell("TRIES", 7)+"TITLE"))
	for _, e := range entries {
		fmt.Fprintf(w, "%s%s%s%s\n",
			padCell(e.AddedAt.Local().Format("2006-01-02 15:04"), 18),
			render(statusStyle(string(e.Status)), padCell(string(e.Status), 13)),
			padCell(fmt.Sprint(e.Attempts), 7),
			padCell(defaultIfEmpty(e.Title, e.URL), 60),
		)
		fmt.Fprintln(w, render(mutedStyle, "  "+e.URL))
	}
}

func defaultIfEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
