package tui

// UI Text Constants
const (
	TextFooterIdle    = "Press 'b' for basic analysis | 'p' for professional | 'q' to quit"
	TextFooterRunning = "Press 'q' to quit (run continues on the backend)"
	TextFooterDone    = "Press 'b'/'p' to run again | 'r' to reset | 'q' to quit"
)
