package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"videolens/orchestrator"
	"videolens/types"
)

// Model is the TUI state. All workflow state lives in the orchestrator;
// the model only keeps a polled snapshot plus input configuration.
type Model struct {
	Orch *orchestrator.Orchestrator

	// What the user pointed the demo at.
	Source types.VideoSource
	Mode   types.AnalysisMode

	// Basic-mode prompts and professional-mode prompt, fixed at startup.
	Prompts []string
	Prompt  string

	// Last polled workflow snapshot.
	Snap orchestrator.Snapshot

	// Logs is the recent-activity trail rendered under the status line.
	Logs []string

	Err error
}

// NewModel creates a TUI model over an orchestrator and a selected source.
func NewModel(orch *orchestrator.Orchestrator, source types.VideoSource, prompts []string, prompt string) Model {
	return Model{
		Orch:    orch,
		Source:  source,
		Mode:    types.ModeBasic,
		Prompts: prompts,
		Prompt:  prompt,
		Snap:    orch.Snapshot(),
		Logs:    make([]string, 0, 8),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(selectSource(m.Orch, m.Source), tickCmd())
}

// AddLog appends a line to the activity trail, keeping the last eight.
func (m Model) AddLog(line string) Model {
	m.Logs = append(m.Logs, line)
	if len(m.Logs) > 8 {
		m.Logs = m.Logs[len(m.Logs)-8:]
	}
	return m
}
