// Package render formats chore views for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/model"
)

const (
	dateLayout = "Mon Jan 2"
	timeLayout = "15:04"
)

// Week writes the seven days of w, one block per day. today highlights the
// matching day header.
func Week(out io.Writer, w *chore.Week, today time.Time) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Week of %s", w.Start.Format("January 2, 2006"))))
	b.WriteString("\n\n")

	for _, day := range w.Days {
		header := dayHeaderStyle
		if sameDay(day.Date, today) {
			header = todayHeaderStyle
		}
		b.WriteString(header.Render(day.Date.Format("Monday, Jan 2")))
		b.WriteString("\n")
		if len(day.Chores) == 0 {
			b.WriteString(mutedStyle.Render("  nothing due"))
			b.WriteString("\n")
		}
		for _, c := range day.Chores {
			b.WriteString("  ")
			b.WriteString(line(c, timeLayout))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(out, b.String())
	return err
}

// List writes chores one per line with their full due date.
func List(out io.Writer, chores []chore.ChoreWithStatus) error {
	if len(chores) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("No chores."))
		return err
	}
	rows := make([]string, 0, len(chores))
	for _, c := range chores {
		rows = append(rows, line(c, dateLayout+" "+timeLayout))
	}
	_, err := fmt.Fprintln(out, lipgloss.JoinVertical(lipgloss.Left, rows...))
	return err
}

// History writes completions newest first.
func History(out io.Writer, entries []chore.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("No completions yet."))
		return err
	}
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		row := fmt.Sprintf("%s  %s  %s",
			e.CompletedAt.Local().Format(dateLayout+" "+timeLayout),
			e.ChoreTitle,
			mutedStyle.Render("by "+e.MemberName))
		if e.Notes != "" {
			row += mutedStyle.Render(fmt.Sprintf(" (%s)", e.Notes))
		}
		rows = append(rows, row)
	}
	_, err := fmt.Fprintln(out, lipgloss.JoinVertical(lipgloss.Left, rows...))
	return err
}

// Preview writes a rule's description and its upcoming occurrences in a
// bordered panel.
func Preview(out io.Writer, rule model.RecurrenceRule, occurrences []time.Time) error {
	rows := []string{
		titleStyle.Render(rule.HumanReadable),
		mutedStyle.Render(rule.Cron),
		"",
	}
	if len(occurrences) == 0 {
		rows = append(rows, mutedStyle.Render("No occurrences in the next 3 months."))
	}
	for _, t := range occurrences {
		rows = append(rows, t.Format("Mon, Jan 2 2006 at 15:04"))
	}
	_, err := fmt.Fprintln(out, panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	return err
}

func line(c chore.ChoreWithStatus, layout string) string {
	title := c.Title
	if c.IsRecurring {
		title += " ↻"
	}
	return fmt.Sprintf("%s %s  %s  %s",
		statusMark(c.Status),
		c.DueDate.Format(layout),
		statusStyle(c.Status).Render(title),
		mutedStyle.Render(c.MemberName))
}

func statusMark(s chore.Status) string {
	switch s {
	case chore.StatusCompleted:
		return completedStyle.UnsetStrikethrough().Render("[x]")
	case chore.StatusOverdue:
		return overdueStyle.Render("[!]")
	}
	return pendingStyle.Render("[ ]")
}

func statusStyle(s chore.Status) lipgloss.Style {
	switch s {
	case chore.StatusCompleted:
		return completedStyle
	case chore.StatusOverdue:
		return overdueStyle
	}
	return lipgloss.NewStyle()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
