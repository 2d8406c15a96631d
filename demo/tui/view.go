package tui

import (
	"fmt"
	"strings"

	"videolens/orchestrator"
	"videolens/types"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("🎬 VideoLens Analysis Demo"))
	b.WriteString("\n\n")

	b.WriteString(InfoStyle.Render("Video: " + m.Source.Filename()))
	b.WriteString("\n\n")

	b.WriteString(m.stateText())
	b.WriteString("\n\n")

	if bar := m.progressLine(); bar != "" {
		b.WriteString(bar)
		b.WriteString("\n\n")
	}

	if len(m.Logs) > 0 {
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		for _, line := range m.Logs {
			b.WriteString(InfoStyle.Render("   " + line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.Snap.Phase == orchestrator.PhaseCompleted && m.Snap.Result != nil {
		b.WriteString(BoxStyle.Render(m.formatResult()))
		b.WriteString("\n\n")
	}

	b.WriteString(m.footer())
	return b.String()
}

// stateText renders the current phase line.
func (m Model) stateText() string {
	if m.Err != nil {
		return ErrorStyle.Render("❌ " + m.Err.Error())
	}

	switch m.Snap.Phase {
	case orchestrator.PhaseIdle:
		if m.Snap.Source == nil {
			return StatusStyle.Render("Selecting source...")
		}
		return HighlightStyle.Render("👋 Ready to analyze!")
	case orchestrator.PhaseUploading:
		return StatusStyle.Render(fmt.Sprintf("📤 Uploading... %d%%", m.Snap.UploadPct))
	case orchestrator.PhaseEncoding:
		return StatusStyle.Render(fmt.Sprintf("🎞️  Encoding... %d%% (%s)", m.Snap.EncodePct, m.Snap.EncodeStage))
	case orchestrator.PhaseAnalyzing:
		return StatusStyle.Render("🧠 Analyzing video with AI...")
	case orchestrator.PhaseCompleted:
		return HighlightStyle.Render("✅ COMPLETE")
	case orchestrator.PhaseError:
		msg := "Unknown error"
		if m.Snap.Err != nil {
			msg = m.Snap.Err.Error()
		}
		return ErrorStyle.Render("❌ Error: " + msg)
	default:
		return ""
	}
}

// progressLine renders a bar for the active long-running phase.
func (m Model) progressLine() string {
	switch m.Snap.Phase {
	case orchestrator.PhaseUploading:
		return renderBar(m.Snap.UploadPct)
	case orchestrator.PhaseEncoding:
		bar := renderBar(m.Snap.EncodePct)
		if m.Snap.EncodeMessage != "" {
			bar += "\n" + InfoStyle.Render("   "+m.Snap.EncodeMessage)
		}
		return bar
	}
	return ""
}

func renderBar(pct int) string {
	const width = 30
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return StatusStyle.Render("[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]")
}

// formatResult renders a terminal result for display.
func (m Model) formatResult() string {
	r := m.Snap.Result
	var b strings.Builder

	b.WriteString(HighlightStyle.Render("Analysis Result"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("ID:   %s\n", r.ID))
	b.WriteString(fmt.Sprintf("Mode: %s\n\n", r.AnalysisMode))

	if r.Results == nil {
		return b.String()
	}

	if r.AnalysisMode == types.ModeBasic {
		for i, pr := range r.Results.BasicResults {
			b.WriteString(StatusStyle.Render(fmt.Sprintf("Q%d: %s", i+1, truncate(pr.Prompt, 70))))
			b.WriteString("\n")
			b.WriteString(InfoStyle.Render(truncate(pr.Response, 300)))
			b.WriteString("\n\n")
		}
	} else {
		for key, val := range r.Results.ProfessionalResult {
			b.WriteString(fmt.Sprintf("%s: %s\n", StatusStyle.Render(key), truncate(fmt.Sprintf("%v", val), 120)))
		}
	}
	return b.String()
}

// truncate cuts on rune boundaries so multi-byte text stays valid.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func (m Model) footer() string {
	switch m.Snap.Phase {
	case orchestrator.PhaseIdle:
		return InfoStyle.Render(TextFooterIdle)
	case orchestrator.PhaseCompleted, orchestrator.PhaseError:
		return InfoStyle.Render(TextFooterDone)
	default:
		return InfoStyle.Render(TextFooterRunning)
	}
}
