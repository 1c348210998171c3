// # cmd/qwikbridge/ui.go
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kunai-consulting/qwikbridge/internal/data/history"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	rewrittenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
	warning     bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	runs       []history.Run
	warnings   []string
	lastUpdate time.Time
}

type updateMsg struct {
	runs     []history.Run
	warnings []string
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.runs = msg.runs
		m.warnings = msg.warnings
		m.lastUpdate = time.Now()

		items := []list.Item{}
		for _, w := range m.warnings {
			items = append(items, item{
				title:   "Transform Warning",
				desc:    w,
				warning: true,
			})
		}
		for _, r := range m.runs {
			items = append(items, item{
				title: r.Module,
				desc:  runSummary(r),
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d runs",
		m.lastUpdate.Format("15:04:05"), len(m.runs)))

	rewritten := 0
	for _, r := range m.runs {
		if r.Detected {
			rewritten++
		}
	}

	var summary string
	if len(m.warnings) == 0 {
		summary = fmt.Sprintf("%s | %s",
			successStyle.Render("✅ No warnings"),
			rewrittenStyle.Render(fmt.Sprintf("%d rewritten", rewritten)))
	} else {
		summary = fmt.Sprintf("⚠️  %s | %s",
			warningStyle.Render(fmt.Sprintf("%d warnings", len(m.warnings))),
			rewrittenStyle.Render(fmt.Sprintf("%d rewritten", rewritten)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("SSR Transform Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func runSummary(r history.Run) string {
	if r.Warning != "" {
		return fmt.Sprintf("warning: %s", r.Warning)
	}
	if !r.Detected {
		return fmt.Sprintf("unchanged (%dms) at %s", r.DurationMs, r.Timestamp.Format("15:04:05"))
	}
	return fmt.Sprintf("%d calls rewritten (%dms) at %s",
		r.RewrittenCalls, r.DurationMs, r.Timestamp.Format("15:04:05"))
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Transform Runs"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}
