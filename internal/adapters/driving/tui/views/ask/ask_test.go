package ask

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

type mockQuestionService struct {
	answer    *domain.Answer
	err       error
	lastNames []string
	lastK     int
	scoped    bool
	lastCtx   context.Context
}

func (m *mockQuestionService) Ask(ctx context.Context, question string, k int) (*domain.Answer, error) {
	m.lastCtx, m.lastK, m.scoped = ctx, k, false
	return m.result(question)
}

func (m *mockQuestionService) AskScoped(
	ctx context.Context, names []string, question string, k int,
) (*domain.Answer, error) {
	m.lastCtx, m.lastK, m.scoped, m.lastNames = ctx, k, true, names
	return m.result(question)
}

func (m *mockQuestionService) result(question string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Question: question, Answer: domain.NoRelevantChunksAnswer}, nil
}

func newReadyView(svc *mockQuestionService) *View {
	v := NewView(nil, nil, svc)
	v.SetDimensions(100, 30)
	return v
}

func typeText(v *View, text string) {
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// runAnswer executes the batch returned by a submit and returns the answer message.
func runAnswer(t *testing.T, cmd tea.Cmd) messages.AnswerReceived {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(messages.AnswerReceived); ok {
			return msg
		}
	}
	t.Fatal("no AnswerReceived in batch")
	return messages.AnswerReceived{}
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.False(t, v.Ready())
	assert.Empty(t, v.Turns())
	assert.Nil(t, v.Scope())
	assert.NotNil(t, v.Init())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_WindowSize(t *testing.T) {
	v := NewView(nil, nil, &mockQuestionService{})

	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.True(t, v.Ready())
	assert.Equal(t, 116, v.viewport.Width)
	assert.Equal(t, 33, v.viewport.Height)
}

func TestView_TypingFillsInput(t *testing.T) {
	v := newReadyView(&mockQuestionService{})

	typeText(v, "what is go")

	assert.Equal(t, "what is go", v.Query())
}

func TestView_EnterOnEmptyInputDoesNothing(t *testing.T) {
	v := newReadyView(&mockQuestionService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Thinking())
}

func TestView_SubmitAsksAcrossAllDocuments(t *testing.T) {
	svc := &mockQuestionService{answer: &domain.Answer{
		Question: "what do cats eat?",
		Answer:   "Fish.",
		Sources:  []string{"cats.md"},
		Found:    true,
	}}
	v := newReadyView(svc).WithTopK(4)
	typeText(v, "what do cats eat?")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, v.Thinking())
	assert.Empty(t, v.Query())
	msg := runAnswer(t, cmd)
	assert.False(t, svc.scoped)
	assert.Equal(t, 4, svc.lastK)

	v.Update(msg)

	assert.False(t, v.Thinking())
	require.Len(t, v.Turns(), 1)
	assert.Equal(t, "what do cats eat?", v.Turns()[0].Question)
	assert.Contains(t, v.renderTranscript(), "Fish.")
	assert.Contains(t, v.renderTranscript(), "Sources: cats.md")
	assert.Contains(t, v.View(), "Answered from 1 document(s)")
}

func TestView_SubmitWithinScope(t *testing.T) {
	svc := &mockQuestionService{}
	v := newReadyView(svc)
	v.Update(messages.ScopeChanged{Documents: []string{"a.md", "b.md"}})
	typeText(v, "q")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runAnswer(t, cmd)

	assert.True(t, svc.scoped)
	assert.Equal(t, []string{"a.md", "b.md"}, svc.lastNames)
	assert.Contains(t, v.View(), "scope: a.md, b.md")
}

func TestView_ClearScope(t *testing.T) {
	v := newReadyView(&mockQuestionService{})
	v.SetScope([]string{"a.md"})

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlX})

	assert.Empty(t, v.Scope())
}

func TestView_NoHitsAnswer(t *testing.T) {
	v := newReadyView(&mockQuestionService{})
	typeText(v, "anything")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(runAnswer(t, cmd))

	assert.NoError(t, v.Err())
	assert.Contains(t, v.renderTranscript(), domain.NoRelevantChunksAnswer)
	assert.NotContains(t, v.renderTranscript(), "Sources:")
}

func TestView_ErrorAnswer(t *testing.T) {
	v := newReadyView(&mockQuestionService{err: domain.ErrNoDocuments})
	typeText(v, "q")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(runAnswer(t, cmd))

	assert.ErrorIs(t, v.Err(), domain.ErrNoDocuments)
	assert.Contains(t, v.renderTranscript(), "docqa ingest")
}

func TestView_EscWhileThinkingCancels(t *testing.T) {
	svc := &mockQuestionService{}
	v := newReadyView(svc)
	typeText(v, "q")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := runAnswer(t, cmd)

	_, escCmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, escCmd)
	require.NotNil(t, svc.lastCtx)
	assert.ErrorIs(t, svc.lastCtx.Err(), context.Canceled)

	msg.Answer, msg.Err = nil, context.Canceled
	v.Update(msg)
	assert.Contains(t, v.renderTranscript(), "cancelled")
}

func TestView_EscWhenIdleReturnsToMenu(t *testing.T) {
	v := newReadyView(&mockQuestionService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_EnterWhileThinkingIsIgnored(t *testing.T) {
	v := newReadyView(&mockQuestionService{})
	typeText(v, "first")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	typeText(v, "second")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, v.Query())
}

func TestView_NilService(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(80, 24)
	typeText(v, "q")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoQuestionService)
}

func TestView_ErrorOccurred(t *testing.T) {
	v := newReadyView(&mockQuestionService{})

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
	assert.Contains(t, v.View(), "Error: boom")
}

func TestView_SpinnerTickIgnoredWhenIdle(t *testing.T) {
	v := newReadyView(&mockQuestionService{})

	_, cmd := v.Update(spinner.TickMsg{})

	assert.Nil(t, cmd)
}

func TestView_Reset(t *testing.T) {
	v := newReadyView(&mockQuestionService{})
	v.SetScope([]string{"a.md"})
	typeText(v, "draft")

	v.Reset()

	assert.Empty(t, v.Query())
	assert.Equal(t, []string{"a.md"}, v.Scope())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "cancelled", describe(context.Canceled))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}
