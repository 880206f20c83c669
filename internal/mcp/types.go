package mcp

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// RunCommandInput is the input for the run_command tool.
type RunCommandInput struct {
	Command   string `json:"command" jsonschema:"required,Command text (e.g. set-floating, resize +0.05, focus-workspace 3)"`
	SubjectID string `json:"subject_id,omitempty" jsonschema:"Container ID to run the command against (default: focused container)"`
}

// RunCommandOutput is the output for the run_command tool.
type RunCommandOutput struct {
	SubjectContainerID string `json:"subject_container_id"`
}
