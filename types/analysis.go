package types

// AnalysisStatus is the lifecycle state of an analysis job.
type AnalysisStatus string

const (
	StatusPending   AnalysisStatus = "pending"
	StatusAnalyzing AnalysisStatus = "analyzing"
	StatusCompleted AnalysisStatus = "completed"
	StatusError     AnalysisStatus = "error"
)

// Terminal reports whether polling should stop at this status.
func (s AnalysisStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// AnalysisMode selects the request shape and result rendering.
type AnalysisMode string

const (
	// ModeBasic runs a fixed set of three prompts against the video model.
	ModeBasic AnalysisMode = "basic"
	// ModeProfessional runs one custom prompt, then structures the output
	// into a classification object with a second model.
	ModeProfessional AnalysisMode = "professional"
)

// PromptResult pairs one basic-mode prompt with the model response.
type PromptResult struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// AnalysisPayload is the mode-shaped result body. Exactly one field is
// populated depending on AnalysisMode.
type AnalysisPayload struct {
	BasicResults       []PromptResult `json:"basic_results,omitempty"`
	ProfessionalResult map[string]any `json:"professional_result,omitempty"`
}

// AnalysisResult is the record the backend builds when a job reaches a
// terminal state. Immutable once created.
type AnalysisResult struct {
	ID           string           `json:"id"`
	Filename     string           `json:"filename"`
	AnalysisMode AnalysisMode     `json:"analysis_mode"`
	Timestamp    string           `json:"timestamp"`
	Status       AnalysisStatus   `json:"status"`
	Results      *AnalysisPayload `json:"results,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// Progress is one poll tick of a long-running phase (upload, encode,
// analyze). Recreated on every tick, discarded when the phase completes.
type Progress struct {
	Percentage int    `json:"percentage"`
	Stage      string `json:"stage"`
	Message    string `json:"message"`
}
