package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"machinespirit/internal/core"
)

// Dashboard panel indices.
const (
	panelKnowledge = iota
	panelQueue
	panelDrafts
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	knowledge *knowledgeSnapshot
	queue     []queueSnapshot
	drafts    []draftSnapshot

	// State.
	loading bool
	err     error
}

type knowledgeSnapshot struct {
	total    int
	taught   int
	promoted int
	recent   []string
}

type queueSnapshot struct {
	topic    string
	status   string
	attempts int
}

type draftSnapshot struct {
	topic string
	kind  string
	weak  bool
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	knowledge *knowledgeSnapshot
	queue     []queueSnapshot
	drafts    []draftSnapshot
	err       error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statusPending  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusDone     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusCooldown = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	weakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	taughtStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelKnowledge,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.knowledge = msg.knowledge
		m.queue = msg.queue
		m.drafts = msg.drafts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Machine Spirit ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	knowledgePanel := m.renderKnowledgePanel()
	queuePanel := m.renderQueuePanel()
	draftsPanel := m.renderDraftsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		knowledgePanel = m.applyPanelStyle(panelKnowledge, knowledgePanel, colWidth-4)
		queuePanel = m.applyPanelStyle(panelQueue, queuePanel, colWidth-4)
		draftsPanel = m.applyPanelStyle(panelDrafts, draftsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, knowledgePanel, queuePanel, draftsPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		knowledgePanel = m.applyPanelStyle(panelKnowledge, knowledgePanel, panelWidth)
		queuePanel = m.applyPanelStyle(panelQueue, queuePanel, panelWidth)
		draftsPanel = m.applyPanelStyle(panelDrafts, draftsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, knowledgePanel, queuePanel, draftsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderKnowledgePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Knowledge"))
	b.WriteString("\n")

	if m.knowledge == nil || m.knowledge.total == 0 {
		b.WriteString("  Nothing learned yet.")
		return b.String()
	}

	k := m.knowledge
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Entries", k.total))
	b.WriteString(taughtStyle.Render(fmt.Sprintf("  %-14s %d", "Taught", k.taught)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Promoted", k.promoted))

	if len(k.recent) > 0 {
		b.WriteString("\n  Recent:\n")
		for _, topic := range k.recent {
			b.WriteString(fmt.Sprintf("    %s\n", topic))
		}
	}
	return b.String()
}

func (m dashboardModel) renderQueuePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Research Queue"))
	b.WriteString("\n")

	if len(m.queue) == 0 {
		b.WriteString("  Queue is empty.")
		return b.String()
	}

	for _, item := range m.queue {
		label := fmt.Sprintf("  %-9s %s", item.status, item.topic)
		if item.attempts > 1 {
			label += fmt.Sprintf(" (x%d)", item.attempts)
		}
		b.WriteString(styleForQueueStatus(item.status).Render(label))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", len(m.queue)))
	return b.String()
}

func (m dashboardModel) renderDraftsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Drafts"))
	b.WriteString("\n")

	if len(m.drafts) == 0 {
		b.WriteString("  No drafts awaiting review.")
		return b.String()
	}

	for _, d := range m.drafts {
		line := fmt.Sprintf("  %-12s %s", d.kind, d.topic)
		if d.weak {
			b.WriteString(weakStyle.Render(line + " (weak)"))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d draft(s)", len(m.drafts)))
	return b.String()
}

func styleForQueueStatus(status string) lipgloss.Style {
	switch status {
	case "pending":
		return statusPending
	case "done":
		return statusDone
	case "failed":
		return statusFailed
	case "cooldown":
		return statusCooldown
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	if Knowledge != nil {
		entries, err := Knowledge.All()
		if err != nil {
			result.err = fmt.Errorf("loading knowledge: %w", err)
			return result
		}
		snap := &knowledgeSnapshot{total: len(entries)}
		type dated struct {
			topic string
			at    int64
		}
		var all []dated
		for key, e := range entries {
			if e.TaughtByUser {
				snap.taught++
			}
			if e.Source == "promoted_draft" {
				snap.promoted++
			}
			all = append(all, dated{topic: key, at: e.UpdatedAt.Unix()})
		}
		sort.Slice(all, func(i, j int) bool { return all[i].at > all[j].at })
		for i := 0; i < len(all) && i < 5; i++ {
			snap.recent = append(snap.recent, all[i].topic)
		}
		result.knowledge = snap
	}

	if Queue != nil {
		items, err := Queue.Items()
		if err != nil {
			result.err = fmt.Errorf("loading queue: %w", err)
			return result
		}
		for _, item := range items {
			result.queue = append(result.queue, queueSnapshot{
				topic:    item.Topic,
				status:   string(item.Status),
				attempts: item.Attempts,
			})
		}
	}

	if Drafts != nil {
		drafts, err := Drafts.All()
		if err != nil {
			result.err = fmt.Errorf("loading drafts: %w", err)
			return result
		}
		keys := make([]string, 0, len(drafts))
		for key := range drafts {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			d := drafts[key]
			result.drafts = append(result.drafts, draftSnapshot{
				topic: d.Topic,
				kind:  string(d.Kind),
				weak:  core.IsWeakDraft(d),
			})
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI overview of knowledge, queue, and drafts",
	Long: `Launch an interactive terminal dashboard showing stored knowledge,
the research queue, and drafts awaiting review.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Knowledge == nil {
			return fmt.Errorf("stores not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
