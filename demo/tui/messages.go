package tui

import "time"

// Messages for the tea program (polling-based)

// TickMsg is sent periodically to refresh the workflow snapshot.
type TickMsg struct {
	Time time.Time
}

// SourceSelectedMsg is sent once the startup source passes validation.
type SourceSelectedMsg struct {
	Err error
}

// StartedMsg is sent when a workflow run was triggered.
type StartedMsg struct {
	Mode string
	Err  error
}
