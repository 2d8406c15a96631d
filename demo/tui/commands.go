package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"videolens/client"
	"videolens/orchestrator"
	"videolens/types"
)

// selectSource creates a command that validates and selects the source.
func selectSource(orch *orchestrator.Orchestrator, src types.VideoSource) tea.Cmd {
	return func() tea.Msg {
		return SourceSelectedMsg{Err: orch.SelectSource(src)}
	}
}

// startRun creates a command that kicks off a workflow run.
func startRun(orch *orchestrator.Orchestrator, req client.AnalysisRequest) tea.Cmd {
	return func() tea.Msg {
		return StartedMsg{Mode: string(req.Mode), Err: orch.Start(req)}
	}
}

// tickCmd creates a command that ticks every 500ms for polling.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
