// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// linesPerEntry is the height of one rendered entry.
const linesPerEntry = 3

// HistoryList displays past answers in a navigable list.
type HistoryList struct {
	entries  []domain.QAEntry
	scores   []float64
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewHistoryList creates a new history list component.
func NewHistoryList(s *styles.Styles) *HistoryList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &HistoryList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *HistoryList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *HistoryList) Update(msg tea.Msg) (*HistoryList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *HistoryList) View() string {
	if len(l.entries) == 0 {
		return l.styles.Muted.Render("No history")
	}

	lines := make([]string, 0, len(l.entries)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("History (%d)", len(l.entries))), "")

	visible := (l.height - 2) / linesPerEntry
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.entries))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderEntry(i))
	}
	return strings.Join(lines, "\n")
}

func (l *HistoryList) renderEntry(index int) string {
	e := &l.entries[index]

	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	meta := e.CreatedAt.Format("2006-01-02 15:04")
	if l.scores != nil {
		meta = fmt.Sprintf("%.2f  %s", l.scores[index], meta)
	}

	maxQuestion := max(l.width-len(meta)-6, 10)
	question := Truncate(e.Question, maxQuestion)

	var first string
	if index == l.selected {
		first = l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxQuestion, question, meta))
	} else {
		first = l.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxQuestion, question)) +
			l.styles.Muted.Render(meta)
	}

	preview := Truncate(strings.Join(strings.Fields(e.Answer), " "), max(l.width-6, 20))
	sources := e.Source
	if sources == "" {
		sources = "(no documents)"
	}

	return first + "\n" +
		l.styles.Source.Render("    "+sources) + "\n" +
		l.styles.Muted.Render("    "+preview)
}

// Truncate shortens s to at most n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// SetEntries replaces the entries. scores is nil or parallel to entries.
func (l *HistoryList) SetEntries(entries []domain.QAEntry, scores []float64) {
	l.entries = entries
	if scores != nil && len(scores) != len(entries) {
		scores = nil
	}
	l.scores = scores
	l.selected = 0
}

// Entries returns the current entries.
func (l *HistoryList) Entries() []domain.QAEntry {
	return l.entries
}

// Selected returns the index of the selected entry.
func (l *HistoryList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *HistoryList) SetSelected(index int) {
	if index >= 0 && index < len(l.entries) {
		l.selected = index
	}
}

// SelectedEntry returns the currently selected entry, or nil if none.
func (l *HistoryList) SelectedEntry() *domain.QAEntry {
	if l.selected < 0 || l.selected >= len(l.entries) {
		return nil
	}
	return &l.entries[l.selected]
}

// MoveUp moves selection up.
func (l *HistoryList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *HistoryList) MoveDown() {
	if l.selected < len(l.entries)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *HistoryList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of entries.
func (l *HistoryList) Count() int {
	return len(l.entries)
}

// IsEmpty returns whether the list is empty.
func (l *HistoryList) IsEmpty() bool {
	return len(l.entries) == 0
}
