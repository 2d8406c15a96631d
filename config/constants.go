package config

// Default configuration values
const (
	DefaultAWSRegion          = "us-west-2"
	DefaultPegasusModelID     = "us.twelvelabs.pegasus-1-2-v1:0"
	DefaultClaudeModelID      = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
	DefaultStructurerProvider = "bedrock"
	DefaultS3Bucket           = "videolens-scratch"

	// EncodeTargetMB is the size uploads are re-encoded down to.
	// Files at or under this size skip encoding entirely.
	EncodeTargetMB = 30

	// Base64LimitMB is the largest video sent inline to the model;
	// bigger files go through the scratch bucket instead.
	Base64LimitMB = 36
)

// DefaultBasicPrompts are the three fixed prompts used by basic mode.
var DefaultBasicPrompts = [3]string{
	"Describe this video in detail. Summarize the main scenes and content.",
	"What work or activities are taking place in the video? Be specific.",
	"Identify the key highlights and important moments in this video.",
}

// DefaultProfessionalPrompt is the single prompt used by professional
// mode before the structuring pass.
const DefaultProfessionalPrompt = "Examine this video closely. If it shows a construction site, identify " +
	"the type of work (earthwork, bridge work, finishing work, etc.), the equipment in use " +
	"(excavators, loaders, dump trucks, etc.) with counts, and the filming technique " +
	"(bird view, oblique view, tracking view, CCTV, first person, 360-degree). If it is an " +
	"educational video, describe the subject matter, drawing on any subtitles or slides shown."
