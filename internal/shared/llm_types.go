package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a model call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// CallMeta holds operational metadata for a single pipeline stage execution.
type CallMeta struct {
	Stage   string
	Usage   TokenUsage
	Latency time.Duration
}
