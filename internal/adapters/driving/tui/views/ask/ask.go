// Package ask provides the conversation view of the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Turn is one question and its outcome.
type Turn struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// View is the conversation view: a transcript, a question input and a
// status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	viewport  viewport.Model
	spinner   spinner.Model
	statusbar *status.Bar

	questionService driving.QuestionService
	ctx             context.Context
	cancel          context.CancelFunc

	turns    []Turn
	scope    []string
	topK     int
	thinking bool
	width    int
	height   int
	ready    bool
	err      error
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, questionService driving.QuestionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Title

	return &View{
		styles:          s,
		keymap:          km,
		input:           input.NewQuestionInput(s),
		viewport:        viewport.New(78, 14),
		spinner:         sp,
		statusbar:       status.NewBar(s, km),
		questionService: questionService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the parent context of every question.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets the number of chunks retrieved per question. Zero uses the
// service default.
func (v *View) WithTopK(k int) *View {
	v.topK = k
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ScopeChanged:
		v.SetScope(msg.Documents)
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		if v.thinking {
			v.cancelQuestion()
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case msg.Type == tea.KeyEnter:
		return v.submit()

	case keymap.Matches(msg.String(), v.keymap.ScrollUp):
		v.scroll(-v.viewport.Height / 2)
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.ScrollDown):
		v.scroll(v.viewport.Height / 2)
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.ClearScope):
		v.SetScope(nil)
		return v, nil
	}

	if v.thinking {
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) submit() (*View, tea.Cmd) {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.thinking {
		return v, nil
	}
	if v.questionService == nil {
		return v, func() tea.Msg {
			return messages.ErrorOccurred{Err: ErrNoQuestionService}
		}
	}

	v.input.Reset()
	v.thinking = true
	v.err = nil
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	return v, tea.Batch(v.ask(ctx, question), v.spinner.Tick)
}

// ask returns a command that answers question within the current scope.
func (v *View) ask(ctx context.Context, question string) tea.Cmd {
	scope := append([]string(nil), v.scope...)
	svc, k := v.questionService, v.topK
	return func() tea.Msg {
		var (
			answer *domain.Answer
			err    error
		)
		if len(scope) > 0 {
			answer, err = svc.AskScoped(ctx, scope, question, k)
		} else {
			answer, err = svc.Ask(ctx, question, k)
		}
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

// scroll moves the transcript by delta lines.
func (v *View) scroll(delta int) {
	v.viewport.SetYOffset(v.viewport.YOffset + delta)
}

func (v *View) cancelQuestion() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.cancelQuestion()
	v.thinking = false
	v.turns = append(v.turns, Turn{Question: msg.Question, Answer: msg.Answer, Err: msg.Err})

	switch {
	case msg.Err != nil:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(describe(msg.Err))
	case msg.Answer != nil && msg.Answer.Found:
		v.err = nil
		v.statusbar.SetState(status.StateAnswered)
		v.statusbar.SetMessage(fmt.Sprintf("Answered from %d document(s)", len(msg.Answer.Sources)))
	default:
		v.err = nil
		v.statusbar.Clear()
	}
	v.refresh()
}

// describe turns service errors into short hints.
func describe(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, domain.ErrNoDocuments):
		return "no documents yet, ingest one with 'docqa ingest <file>'"
	default:
		return err.Error()
	}
}

// refresh re-renders the transcript and scrolls to the newest turn.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 && !v.thinking {
		return v.styles.Muted.Render("Ask anything about your documents.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.viewport.Width-2, 20))
	blocks := make([]string, 0, len(v.turns)+1)
	for _, t := range v.turns {
		var b strings.Builder
		b.WriteString(v.styles.Question.Render("You: ") + t.Question + "\n")
		switch {
		case t.Err != nil:
			b.WriteString(v.styles.Error.Render("Error: " + describe(t.Err)))
		case t.Answer != nil:
			b.WriteString(wrap.Render(v.styles.Answer.Render(t.Answer.Answer)))
			if len(t.Answer.Sources) > 0 {
				b.WriteString("\n" + v.styles.Source.Render("Sources: "+strings.Join(t.Answer.Sources, ", ")))
			}
		}
		blocks = append(blocks, b.String())
	}
	if v.thinking {
		blocks = append(blocks, v.spinner.View()+v.styles.Muted.Render(" thinking..."))
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("docqa")
	if len(v.scope) > 0 {
		header += "  " + v.styles.Scoped.Render("scope: "+strings.Join(v.scope, ", "))
	}

	if v.thinking {
		// keep the spinner frame current
		v.viewport.SetContent(v.renderTranscript())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		v.styles.Transcript.Render(v.viewport.View()),
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// header, transcript frame, input frame and status bar
	const reserved = 1 + 2 + 3 + 1
	v.viewport.Width = max(width-4, 20)
	v.viewport.Height = max(height-reserved, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// SetScope restricts questions to names. Nil asks across every document.
func (v *View) SetScope(names []string) {
	v.scope = append([]string(nil), names...)
	v.statusbar.SetScope(v.scope)
}

// Scope returns the documents questions are restricted to.
func (v *View) Scope() []string {
	return v.scope
}

// Turns returns the conversation so far.
func (v *View) Turns() []Turn {
	return v.turns
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// Query returns the text in the question input.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the text in the question input.
func (v *View) SetQuery(q string) {
	v.input.SetValue(q)
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Reset clears the input and focuses it. The transcript and scope are kept.
func (v *View) Reset() {
	v.input.Reset()
	v.input.Focus()
	v.err = nil
	if !v.thinking {
		v.statusbar.Clear()
	}
}
