package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(nothing to show)"))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// renderFields prints label/value pairs, skipping empty values.
func renderFields(w io.Writer, title string, pairs ...string) {
	if title != "" {
		fmt.Fprintln(w, titleStyle.Render(title))
	}
	width := 0
	for i := 0; i+1 < len(pairs); i += 2 {
		width = max(width, len(pairs[i]))
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		fmt.Fprintf(w, "  %-*s  %s\n", width, pairs[i]+":", pairs[i+1])
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func fmtTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func fmtMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " CNY"
}

func fmtBool(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func fmtRating(r *int) string {
	if r == nil {
		return ""
	}
	n := min(max(*r, 0), 5)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
