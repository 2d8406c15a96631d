package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Structurer turns the video model's free-text description into the
// classification object professional mode returns.
type Structurer interface {
	Structure(ctx context.Context, description string) (map[string]any, error)
}

// structuringPrompt wraps the description in the classification request.
func structuringPrompt(description string) string {
	return fmt.Sprintf(`The following is a video analysis result. Convert it into structured JSON:

%s

Respond in this format:
{
  "video_type": "construction_site" | "educational" | "other",
  "construction_info": {
    "work_type": ["earthwork", "bridge_work", "finishing_work", ...],
    "equipment": {
      "excavator": count or "unclear",
      "dump_truck": count or "unclear"
    },
    "filming_technique": ["Bird View", "Oblique View", ...]
  },
  "educational_info": {
    "content_type": "description of the educational content",
    "slide_content": "summary of slide content"
  },
  "confidence_score": confidence between 0.0 and 1.0
}

Set construction_info to null when the video is not a construction site,
and educational_info to null when it is not educational. Respond with JSON only.`, description)
}

// extractStructured pulls a JSON object out of a model reply, tolerating
// code fences and surrounding prose. When no parseable object is found
// the raw text is wrapped instead of failing the job.
func extractStructured(text string) map[string]any {
	candidate := text
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			candidate = strings.TrimSpace(rest[:j])
		}
	} else if i := strings.Index(text, "{"); i >= 0 {
		if j := strings.LastIndex(text, "}"); j > i {
			candidate = text[i : j+1]
		}
	}

	var structured map[string]any
	if err := json.Unmarshal([]byte(candidate), &structured); err == nil {
		return structured
	}
	return map[string]any{
		"video_type":       "other",
		"raw_analysis":     text,
		"confidence_score": 0.7,
	}
}
