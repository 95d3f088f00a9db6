// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

// mode is what the keyboard currently drives.
type mode int

const (
	modeList mode = iota
	modeRename
	modeConfirmDelete
)

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService
	ctx             context.Context

	documents    []domain.DocumentSummary
	scope        map[string]bool
	rename       *input.Field
	mode         mode
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	loading      bool
	err          error
	notice       string
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, km *keymap.KeyMap, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	rename := input.NewField(s, "New name: ", "")
	rename.Blur()
	return &View{
		styles:          s,
		keymap:          km,
		documentService: documentService,
		ctx:             context.Background(),
		scope:           map[string]bool{},
		rename:          rename,
		width:           80,
		height:          24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.mode = modeList
	return v.loadDocuments()
}

func (v *View) loadDocuments() tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case modeRename:
			return v.handleRenameKey(msg)
		case modeConfirmDelete:
			return v.handleDeleteKey(msg)
		case modeList:
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			v.pruneScope()
			if v.selected >= len(v.documents) {
				v.selected = max(len(v.documents)-1, 0)
			}
			v.adjustScroll()
		}
		return v, nil

	case messages.DocumentRenamed:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.notice = fmt.Sprintf("Renamed %q to %q", msg.OldName, msg.NewName)
		if v.scope[msg.OldName] {
			delete(v.scope, msg.OldName)
			v.scope[msg.NewName] = true
			return v, tea.Batch(v.loadDocuments(), v.scopeChanged())
		}
		return v, v.loadDocuments()

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.notice = fmt.Sprintf("Deleted %q", msg.Name)
		if v.scope[msg.Name] {
			delete(v.scope, msg.Name)
			return v, tea.Batch(v.loadDocuments(), v.scopeChanged())
		}
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	if v.mode == modeRename {
		var cmd tea.Cmd
		v.rename, cmd = v.rename.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Scope):
		if doc := v.SelectedDocument(); doc != nil {
			if v.scope[doc.Source] {
				delete(v.scope, doc.Source)
			} else {
				v.scope[doc.Source] = true
			}
			return v, v.scopeChanged()
		}
	case keymap.Matches(key, v.keymap.Select):
		return v.askAbout()
	case keymap.Matches(key, v.keymap.Rename):
		if doc := v.SelectedDocument(); doc != nil {
			v.mode = modeRename
			v.notice = ""
			v.rename.SetValue(doc.Source)
			return v, v.rename.Focus()
		}
	case keymap.Matches(key, v.keymap.Delete):
		if v.SelectedDocument() != nil {
			v.mode = modeConfirmDelete
			v.notice = ""
		}
	case keymap.Matches(key, v.keymap.Reload):
		v.loading = true
		return v, v.loadDocuments()
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// askAbout switches to the ask view scoped to the marked documents, or to
// the selected one when nothing is marked.
func (v *View) askAbout() (*View, tea.Cmd) {
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	if len(v.scope) == 0 {
		v.scope[doc.Source] = true
	}
	return v, tea.Batch(v.scopeChanged(), func() tea.Msg {
		return messages.ViewChanged{View: messages.ViewAsk}
	})
}

func (v *View) handleRenameKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		v.mode = modeList
		v.rename.Blur()
		return v, nil
	case tea.KeyEnter:
		doc := v.SelectedDocument()
		raw := strings.TrimSpace(v.rename.Value())
		v.mode = modeList
		v.rename.Blur()
		if doc == nil || raw == "" {
			return v, nil
		}
		newName := domain.SanitizeDocumentName(raw)
		if newName == doc.Source {
			return v, nil
		}
		return v, v.renameDocument(doc.Source, newName)
	}
	var cmd tea.Cmd
	v.rename, cmd = v.rename.Update(msg)
	return v, cmd
}

func (v *View) handleDeleteKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.mode = modeList
	if msg.String() != "y" {
		return v, nil
	}
	doc := v.SelectedDocument()
	if doc == nil {
		return v, nil
	}
	return v, v.deleteDocument(doc.Source)
}

func (v *View) renameDocument(oldName, newName string) tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentRenamed{OldName: oldName, NewName: newName, Err: ErrNoDocumentService}
		}
		change, err := svc.Rename(ctx, oldName, newName)
		return messages.DocumentRenamed{OldName: oldName, NewName: newName, Change: change, Err: err}
	}
}

func (v *View) deleteDocument(name string) tea.Cmd {
	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{Name: name, Err: ErrNoDocumentService}
		}
		change, err := svc.Delete(ctx, name)
		return messages.DocumentDeleted{Name: name, Change: change, Err: err}
	}
}

func (v *View) scopeChanged() tea.Cmd {
	names := v.Scope()
	return func() tea.Msg {
		return messages.ScopeChanged{Documents: names}
	}
}

// pruneScope drops scoped names that no longer exist.
func (v *View) pruneScope() {
	known := make(map[string]bool, len(v.documents))
	for _, d := range v.documents {
		known[d.Source] = true
	}
	for name := range v.scope {
		if !known[name] {
			delete(v.scope, name)
		}
	}
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// title, blank, footer lines
	return max(v.height-8, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	if len(v.scope) > 0 {
		b.WriteString("  " + v.styles.Scoped.Render(fmt.Sprintf("%d in scope", len(v.scope))))
	}
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil && len(v.documents) == 0:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents ingested. Run 'docqa ingest <file>' to add one."))
	default:
		v.renderList(&b)
	}

	b.WriteString("\n\n")
	switch v.mode {
	case modeRename:
		b.WriteString(v.rename.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Help.Render("[enter] rename  [esc] cancel"))
	case modeConfirmDelete:
		name := ""
		if doc := v.SelectedDocument(); doc != nil {
			name = doc.Source
		}
		b.WriteString(v.styles.Warning.Render(
			fmt.Sprintf("Delete %q with its chunks and history? [y/N]", name)))
	case modeList:
		if v.err != nil && len(v.documents) > 0 {
			b.WriteString(v.styles.Error.Render("Error: "+v.err.Error()) + "\n")
		} else if v.notice != "" {
			b.WriteString(v.styles.Success.Render(v.notice) + "\n")
		}
		b.WriteString(v.styles.Help.Render(
			"[↑/↓] navigate  [space] scope  [enter] ask  [r] rename  [d] delete  [ctrl+r] reload  [esc] back"))
	}

	return b.String()
}

func (v *View) renderList(b *strings.Builder) {
	visible := v.visibleItemCount()
	nameWidth := max(v.width-24, 10)

	end := min(v.scrollOffset+visible, len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		doc := v.documents[i]
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}
		mark := "[ ]"
		if v.scope[doc.Source] {
			mark = "[x]"
		}
		name := doc.Source
		if r := []rune(name); len(r) > nameWidth {
			name = string(r[:nameWidth-3]) + "..."
		}
		line := fmt.Sprintf("%s%s %-*s %6d chunks", indicator, mark, nameWidth, name, doc.ChunkCount)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	if len(v.documents) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1, end, len(v.documents))))
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.rename.SetWidth(width)
}

// SetScope replaces the scoped documents.
func (v *View) SetScope(names []string) {
	v.scope = make(map[string]bool, len(names))
	for _, n := range names {
		v.scope[n] = true
	}
}

// Scope returns the scoped documents, sorted.
func (v *View) Scope() []string {
	names := make([]string, 0, len(v.scope))
	for n := range v.scope {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.DocumentSummary {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.DocumentSummary {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Renaming reports whether the rename input is open.
func (v *View) Renaming() bool {
	return v.mode == modeRename
}

// ConfirmingDelete reports whether the delete prompt is open.
func (v *View) ConfirmingDelete() bool {
	return v.mode == modeConfirmDelete
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
