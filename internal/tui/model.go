package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragqa/internal/domain"
)

// AnswerPort is the TUI-facing subset of the RAG service.
type AnswerPort interface {
	Answer(ctx context.Context, query string) (*domain.Answer, error)
}

// answerMsg carries the pipeline result back into the update loop.
type answerMsg struct {
	query  string
	answer *domain.Answer
	err    error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx      context.Context
	service  AnswerPort
	input    textinput.Model
	viewport viewport.Model
	links    table.Model
	spinner  spinner.Model
	answer   *domain.Answer
	err      error
	status   string
	loading  bool
	ready    bool
	width    int
}

// New creates a new TUI model instance. ctx bounds every pipeline run.
func New(ctx context.Context, service AnswerPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter your query here"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	tbl := table.New(
		table.WithColumns(linkColumns(80)),
		table.WithHeight(6),
		table.WithFocused(true),
	)
	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: viewport.New(0, 0),
		links:    tbl,
		spinner:  sp,
		status:   "Type a question and press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and pipeline events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		// title, two section headers, table, query box, status
		reserved := 3 + m.links.Height() + 2 + qh + 1 + ah
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.links.SetColumns(linkColumns(msg.Width))
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := m.input.Value()
			if strings.TrimSpace(q) == "" || m.loading {
				// keep whatever is on screen
				return m, nil
			}
			m.loading = true
			m.status = fmt.Sprintf("Searching for %q", q)
			return m, tea.Batch(m.spinner.Tick, ask(m.ctx, m.service, q))
		case "up", "down":
			var cmd tea.Cmd
			m.links, cmd = m.links.Update(msg)
			return m, cmd
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	case answerMsg:
		m.loading = false
		if errors.Is(msg.err, domain.ErrEmptyQuery) {
			return m, nil
		}
		m.answer = msg.answer
		m.err = msg.err
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Results for %q", msg.query)
		}
		m.links.SetRows(linkRows(m.answer))
		m.links.GotoTop()
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout: answer, related articles, query box and status.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Help Search"))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Answer"))
	b.WriteString("\n")
	b.WriteString(answerBoxStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Related Articles"))
	b.WriteString("\n")
	switch {
	case m.answer == nil:
		b.WriteString(dimStyle.Render("No search yet."))
	case m.answer.NoResults():
		b.WriteString(noticeStyle.Render("No results found"))
	default:
		b.WriteString(m.links.View())
	}
	b.WriteString("\n")
	b.WriteString(queryBoxStyle.Render(m.input.View()))
	b.WriteString("\n")
	if m.loading {
		b.WriteString(m.spinner.View() + " ")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(statusStyle.Render(m.status))
	}
	return b.String()
}

func (m Model) renderAnswer() string {
	wrap := lipgloss.NewStyle().Width(max(20, m.viewport.Width))
	switch {
	case m.err != nil && m.answer != nil:
		return errorStyle.Render("The answer could not be generated: "+m.err.Error()) +
			"\n\n" + dimStyle.Render("Retrieved articles are listed below.")
	case m.err != nil:
		return errorStyle.Render("Search failed: " + m.err.Error())
	case m.answer == nil:
		return dimStyle.Render("Ask a question to get started.")
	}
	return wrap.Render(m.answer.Text)
}

func ask(ctx context.Context, svc AnswerPort, q string) tea.Cmd {
	return func() tea.Msg {
		ans, err := svc.Answer(ctx, q)
		return answerMsg{query: q, answer: ans, err: err}
	}
}

func linkColumns(width int) []table.Column {
	rest := max(20, width-7-30-8)
	return []table.Column{
		{Title: "Score", Width: 7},
		{Title: "Title", Width: 30},
		{Title: "Link", Width: rest},
	}
}

func linkRows(ans *domain.Answer) []table.Row {
	if ans == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(ans.Matches))
	for _, l := range ans.Matches {
		rows = append(rows, table.Row{fmt.Sprintf("%.3f", l.Score), l.Title, l.URL})
	}
	return rows
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle   = lipgloss.NewStyle().Bold(true)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)
