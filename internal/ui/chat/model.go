// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cerechat/internal/completion"
	"github.com/jeranaias/cerechat/internal/handoff"
	"github.com/jeranaias/cerechat/internal/model"
	"github.com/jeranaias/cerechat/internal/session"
	"github.com/jeranaias/cerechat/internal/ui/styles"
	"github.com/jeranaias/cerechat/internal/util"
)

// Options configures a chat Model.
type Options struct {
	Theme        *styles.Theme
	Conversation *model.Conversation
	Dispatcher   session.Dispatcher
	Results      *handoff.Channel[completion.Result]
	Logger       *slog.Logger

	// Shown in the header
	ModelName string
	Endpoint  string
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	theme       *styles.Theme
	coordinator *session.Coordinator
	results     *handoff.Channel[completion.Result]

	// Shared by pointer so the coordinator sees the live widgets across
	// Bubble Tea's value copies of Model.
	transcript *transcriptView
	input      *inputField

	viewport viewport.Model
	spinner  spinner.Model
	keyMap   KeyMap

	modelName string
	endpoint  string

	width    int
	height   int
	ready    bool
	spinning bool
	closed   bool
}

// transcriptView is the coordinator's Renderer. Lines are styled once when
// appended and never re-rendered from the conversation. The wrapped form is
// extended as lines arrive and rebuilt only when the width changes.
type transcriptView struct {
	theme *styles.Theme
	lines []string
	dirty bool

	wrapped      strings.Builder
	wrapWidth    int
	wrappedLines int
}

func (t *transcriptView) AppendLine(line string) {
	t.lines = append(t.lines, t.theme.TranscriptLine(line))
	t.dirty = true
}

func (t *transcriptView) String() string {
	return strings.Join(t.lines, "\n")
}

// Wrapped returns the transcript wrapped to width columns.
func (t *transcriptView) Wrapped(width int) string {
	if width != t.wrapWidth {
		t.wrapped.Reset()
		t.wrapWidth = width
		t.wrappedLines = 0
	}
	for _, line := range t.lines[t.wrappedLines:] {
		if t.wrappedLines > 0 {
			t.wrapped.WriteByte('\n')
		}
		t.wrapped.WriteString(util.WrapText(line, width))
		t.wrappedLines++
	}
	return t.wrapped.String()
}

// inputField is the coordinator's Input.
type inputField struct {
	textinput.Model
}

func (f *inputField) Clear() {
	f.Reset()
}

// New creates the chat model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message and press Enter..."
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Pending

	tv := &transcriptView{theme: theme}
	in := &inputField{Model: ti}

	return Model{
		theme:       theme,
		coordinator: session.NewCoordinator(opts.Conversation, tv, in, opts.Dispatcher, opts.Logger),
		results:     opts.Results,
		transcript:  tv,
		input:       in,
		viewport:    vp,
		spinner:     sp,
		keyMap:      DefaultKeyMap(),
		modelName:   opts.ModelName,
		endpoint:    opts.Endpoint,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the first wait on the hand-off channel.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.results != nil {
		cmds = append(cmds, WaitForResult(m.results))
	}
	return tea.Batch(cmds...)
}

// View renders the screen.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Coordinator returns the session coordinator driven by this model.
func (m Model) Coordinator() *session.Coordinator {
	return m.coordinator
}

// Transcript returns the rendered transcript text.
func (m Model) Transcript() string {
	return m.transcript.String()
}

// InputValue returns the text field's current value.
func (m Model) InputValue() string {
	return m.input.Value()
}
