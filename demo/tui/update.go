package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"videolens/client"
	"videolens/orchestrator"
	"videolens/types"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case TickMsg:
		return m.handleTick()
	case SourceSelectedMsg:
		return m.handleSourceSelected(msg)
	case StartedMsg:
		return m.handleStarted(msg)
	}
	return m, nil
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "b", "B":
		if m.Orch.CanAnalyze() {
			m.Mode = types.ModeBasic
			m = m.AddLog("Starting basic analysis...")
			return m, startRun(m.Orch, client.AnalysisRequest{
				Mode:    types.ModeBasic,
				Prompts: m.Prompts,
			})
		}
	case "p", "P":
		if m.Orch.CanAnalyze() {
			m.Mode = types.ModeProfessional
			m = m.AddLog("Starting professional analysis...")
			return m, startRun(m.Orch, client.AnalysisRequest{
				Mode:   types.ModeProfessional,
				Prompt: m.Prompt,
			})
		}
	case "r", "R":
		m.Orch.Reset()
		m.Err = nil
		m = m.AddLog("Workflow reset")
		return m, selectSource(m.Orch, m.Source)
	}
	return m, nil
}

// handleTick refreshes the snapshot and schedules the next tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	prev := m.Snap.Phase
	m.Snap = m.Orch.Snapshot()
	if m.Snap.Phase != prev {
		m = m.AddLog(phaseLog(m.Snap))
	}
	return m, tickCmd()
}

func phaseLog(s orchestrator.Snapshot) string {
	switch s.Phase {
	case orchestrator.PhaseUploading:
		return "Uploading video..."
	case orchestrator.PhaseEncoding:
		return "Re-encoding video..."
	case orchestrator.PhaseAnalyzing:
		return fmt.Sprintf("Analysis running (id: %s)", s.AnalysisID)
	case orchestrator.PhaseCompleted:
		return "Analysis completed!"
	case orchestrator.PhaseError:
		if s.Err != nil {
			return "Error: " + s.Err.Error()
		}
		return "Error"
	}
	return string(s.Phase)
}

// handleSourceSelected processes startup source validation.
func (m Model) handleSourceSelected(msg SourceSelectedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Err = fmt.Errorf("source rejected: %w", msg.Err)
		return m, nil
	}
	m = m.AddLog("Source selected: " + m.Source.Filename())
	return m, nil
}

// handleStarted processes run-start acknowledgement.
func (m Model) handleStarted(msg StartedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Err = msg.Err
		return m, nil
	}
	m.Err = nil
	return m, nil
}
