// Package history provides the answered-questions view of the TUI.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrNoHistoryService indicates that no history service was provided.
var ErrNoHistoryService = errors.New("history service not available")

// Mode selects how the search box is interpreted.
type Mode int

const (
	// ModeKeyword matches the text of questions and answers.
	ModeKeyword Mode = iota
	// ModeSemantic ranks entries by similarity to the query.
	ModeSemantic
)

// String returns the display name of the mode.
func (m Mode) String() string {
	if m == ModeSemantic {
		return "semantic"
	}
	return "keyword"
}

// View lists past answers and searches them.
type View struct {
	styles         *styles.Styles
	keymap         *keymap.KeyMap
	historyService driving.HistoryService
	ctx            context.Context

	list    *list.HistoryList
	search  *input.Field
	mode    Mode
	query   string
	topK    int
	skipped int
	detail  bool
	loading bool
	width   int
	height  int
	ready   bool
	err     error
}

// NewView creates a new history view.
func NewView(s *styles.Styles, km *keymap.KeyMap, historyService driving.HistoryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	search := input.NewField(s, "Search: ", "keyword, or a question in semantic mode")
	search.Blur()
	return &View{
		styles:         s,
		keymap:         km,
		historyService: historyService,
		ctx:            context.Background(),
		list:           list.NewHistoryList(s),
		search:         search,
		width:          80,
		height:         24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets the result limit of semantic searches. Zero uses the
// service default.
func (v *View) WithTopK(k int) *View {
	v.topK = k
	return v
}

// Init loads the full history.
func (v *View) Init() tea.Cmd {
	v.detail = false
	return v.load(v.query)
}

// load lists everything for an empty query, otherwise searches in the
// current mode.
func (v *View) load(query string) tea.Cmd {
	v.loading = true
	v.query = query
	svc, ctx, mode, k := v.historyService, v.ctx, v.mode, v.topK
	return func() tea.Msg {
		if svc == nil {
			return messages.HistoryLoaded{Query: query, Err: ErrNoHistoryService}
		}
		switch {
		case query == "":
			entries, err := svc.List(ctx, "")
			return messages.HistoryLoaded{Query: query, Entries: entries, Err: err}
		case mode == ModeSemantic:
			result, err := svc.SearchSemantic(ctx, query, k)
			if err != nil {
				return messages.HistoryLoaded{Query: query, Err: err}
			}
			entries := make([]domain.QAEntry, len(result.Entries))
			scores := make([]float64, len(result.Entries))
			for i, e := range result.Entries {
				entries[i] = e.Entry
				scores[i] = e.Score
			}
			return messages.HistoryLoaded{
				Query: query, Entries: entries, Scores: scores, Skipped: result.Skipped,
			}
		default:
			entries, err := svc.SearchKeyword(ctx, query)
			return messages.HistoryLoaded{Query: query, Entries: entries, Err: err}
		}
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.search.Focused() {
			return v.handleSearchKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		// A slower earlier search must not replace a newer one.
		if msg.Query != v.query {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		v.skipped = msg.Skipped
		if msg.Err == nil {
			v.list.SetEntries(msg.Entries, msg.Scores)
		} else {
			v.list.SetEntries(nil, nil)
		}
		v.detail = false
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	if v.search.Focused() {
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleSearchKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Back):
		v.search.Blur()
		return v, nil
	case keymap.Matches(key, v.keymap.Submit):
		v.search.Blur()
		return v, v.load(strings.TrimSpace(v.search.Value()))
	case keymap.Matches(key, v.keymap.Mode):
		v.toggleMode()
		return v, nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Search):
		v.detail = false
		return v, v.search.Focus()
	case keymap.Matches(key, v.keymap.Mode):
		v.toggleMode()
		if v.query != "" {
			return v, v.load(v.query)
		}
	case keymap.Matches(key, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(key, v.keymap.Select):
		if v.list.SelectedEntry() != nil {
			v.detail = !v.detail
		}
	case keymap.Matches(key, v.keymap.Reload):
		return v, v.load(v.query)
	case keymap.Matches(key, v.keymap.Back):
		if v.detail {
			v.detail = false
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) toggleMode() {
	if v.mode == ModeKeyword {
		v.mode = ModeSemantic
	} else {
		v.mode = ModeKeyword
	}
}

// View renders the history view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("History"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render("[" + v.mode.String() + "]"))
	b.WriteString("\n\n")
	b.WriteString(v.search.View())
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.detail:
		b.WriteString(v.renderDetail())
	case v.list.IsEmpty() && v.query != "":
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("No answers match %q", v.query)))
	default:
		b.WriteString(v.list.View())
	}

	if v.skipped > 0 {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Warning.Render(
			fmt.Sprintf("%d entries skipped (unreadable embedding)", v.skipped)))
	}

	b.WriteString("\n\n")
	if v.search.Focused() {
		b.WriteString(v.styles.Help.Render("[enter] search  [tab] keyword/semantic  [esc] done"))
	} else {
		b.WriteString(v.styles.Help.Render(
			"[/] search  [tab] keyword/semantic  [enter] details  [ctrl+r] reload  [esc] back"))
	}
	return b.String()
}

func (v *View) renderDetail() string {
	e := v.list.SelectedEntry()
	if e == nil {
		return ""
	}
	width := max(v.width-4, 20)

	sources := e.Source
	if sources == "" {
		sources = "(no documents)"
	}

	var b strings.Builder
	b.WriteString(v.styles.Question.Render("Q: " + e.Question))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(e.CreatedAt.Format("2006-01-02 15:04")))
	b.WriteString("\n")
	b.WriteString(v.styles.Source.Render("Sources: " + sources))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(e.Answer))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.search.SetWidth(width)
	// title, search and footer
	v.list.SetDimensions(width, max(height-9, 3))
}

// Mode returns the search mode.
func (v *View) Mode() Mode {
	return v.mode
}

// Query returns the query of the displayed results.
func (v *View) Query() string {
	return v.query
}

// Entries returns the displayed entries.
func (v *View) Entries() []domain.QAEntry {
	return v.list.Entries()
}

// Skipped returns how many entries the last semantic search skipped.
func (v *View) Skipped() int {
	return v.skipped
}

// ShowingDetail reports whether the selected entry is shown in full.
func (v *View) ShowingDetail() bool {
	return v.detail
}

// Searching reports whether the search box has focus.
func (v *View) Searching() bool {
	return v.search.Focused()
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
