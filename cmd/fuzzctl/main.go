// Command fuzzctl is a terminal dashboard over the rank-0 status API:
// worker health, partition weights, and graph coverage, refreshed on a
// timer against /status.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shouc/distfuzz/pkg/api"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5FAFFF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5FD7AF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FD7AF")).
			Padding(0, 1)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#AF87FF")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh now")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding { return []key.Binding{k.Refresh, k.Quit} }

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type statusMsg struct {
	health *api.HealthResponse
	status *api.StatusResponse
	err    error
}

func fetchStatus(client *http.Client, baseURL string) tea.Cmd {
	return func() tea.Msg {
		health, err := getJSON[api.HealthResponse](client, baseURL+"/health")
		if err != nil {
			return statusMsg{err: err}
		}
		status, err := getJSON[api.StatusResponse](client, baseURL+"/status")
		if err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{health: health, status: status}
	}
}

func getJSON[T any](client *http.Client, url string) (*T, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

type model struct {
	baseURL   string
	client    *http.Client
	help      help.Model
	keys      keyMap
	workerTbl table.Model
	health    *api.HealthResponse
	status    *api.StatusResponse
	lastErr   error
	width     int
}

func initialModel(baseURL string) model {
	columns := []table.Column{
		{Title: "Rank", Width: 6},
		{Title: "Last Seen", Width: 20},
		{Title: "Edges", Width: 10},
		{Title: "Weight", Width: 10},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(false), table.WithHeight(10))

	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#5FD7AF")).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5F5FAF"))
	t.SetStyles(s)

	return model{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 5 * time.Second},
		help:      help.New(),
		keys:      keys,
		workerTbl: t,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(fetchStatus(m.client, m.baseURL), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tickMsg:
		return m, tea.Batch(fetchStatus(m.client, m.baseURL), tickCmd())

	case statusMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.health = msg.health
			m.status = msg.status
			m.workerTbl.SetRows(buildRows(msg.status.Workers))
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, fetchStatus(m.client, m.baseURL)
		}
	}
	return m, nil
}

func buildRows(workers []api.WorkerStatusView) []table.Row {
	sorted := append([]api.WorkerStatusView(nil), workers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	rows := make([]table.Row, 0, len(sorted))
	for _, w := range sorted {
		seen := time.Unix(w.LastSeenUnix, 0).Format(time.RFC3339)
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", w.Rank),
			seen,
			fmt.Sprintf("%d", w.EdgeCount),
			fmt.Sprintf("%d", w.Weight),
		})
	}
	return rows
}

func (m model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("fuzzctl - cluster status"))
	s.WriteString("\n\n")

	if m.lastErr != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("fetch error: %v", m.lastErr)))
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderSummary())
	s.WriteString("\n\n")
	s.WriteString(headerStyle.Render("Workers"))
	s.WriteString("\n\n")
	s.WriteString(m.workerTbl.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return contentStyle.Render(s.String())
}

func (m model) renderSummary() string {
	status := "unknown"
	uptime := "-"
	nodeCount := 0
	workerCount := 0

	if m.health != nil {
		status = m.health.Status
		uptime = m.health.Uptime
	}
	if m.status != nil {
		nodeCount = m.status.NodeCount
		workerCount = len(m.status.Workers)
	}

	content := fmt.Sprintf(
		"Status:   %s\nUptime:   %s\nNodes:    %d\nWorkers:  %d",
		status, uptime, nodeCount, workerCount,
	)
	return statsBoxStyle.Render(content)
}

func main() {
	baseURL := "http://127.0.0.1:8080"
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}
	baseURL = strings.TrimRight(baseURL, "/")

	p := tea.NewProgram(initialModel(baseURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("fuzzctl: %v", err)
	}
}
