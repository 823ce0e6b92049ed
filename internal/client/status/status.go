// Package status maps the fixed set of case and verification status codes
// to display labels and colors.
package status

import "github.com/charmbracelet/lipgloss"

type Entry struct {
	Label string
	Color lipgloss.Color
}

var table = map[string]Entry{
	"pending":     {"Pending", lipgloss.Color("214")},
	"accepted":    {"Accepted", lipgloss.Color("39")},
	"in_progress": {"In progress", lipgloss.Color("63")},
	"completed":   {"Completed", lipgloss.Color("42")},
	"cancelled":   {"Cancelled", lipgloss.Color("245")},
	"approved":    {"Approved", lipgloss.Color("42")},
	"rejected":    {"Rejected", lipgloss.Color("196")},
	"revoked":     {"Revoked", lipgloss.Color("160")},
}

var unknownColor = lipgloss.Color("245")

// Lookup returns the entry for code. Unknown codes keep their raw text.
func Lookup(code string) Entry {
	if e, ok := table[code]; ok {
		return e
	}
	return Entry{Label: code, Color: unknownColor}
}

func Label(code string) string {
	return Lookup(code).Label
}

// Render returns the colored label for code.
func Render(code string) string {
	e := Lookup(code)
	return lipgloss.NewStyle().Bold(true).Foreground(e.Color).Render(e.Label)
}
