package model

import "time"

// Role is the speaker of a conversation Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ToolCallRef is an optional reference to a tool invocation within a turn
// (e.g. a file edit), used to derive AFFECTS edges with source=tool_call.
type ToolCallRef struct {
	Name      string   `json:"name"`
	FilePaths []string `json:"file_paths,omitempty"`
}

// Turn is a single message within a Conversation.
type Turn struct {
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	ToolCalls []ToolCallRef `json:"tool_calls,omitempty"`
}

// Conversation is the Parser's pure output (spec.md section 4.1).
type Conversation struct {
	Project          string    `json:"project"`
	SessionTimestamp time.Time `json:"session_timestamp"`
	Turns            []Turn    `json:"turns"`
}

// Episode is a contiguous run of turns split from a Conversation when
// the inter-turn gap exceeds the configured threshold.
type Episode struct {
	Turns []Turn
}
