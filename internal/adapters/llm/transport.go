// Package llm implements the resilient completion client shared by all
// provider adapters. Provider SDK responses are adapted into the narrow
// Response type at the transport boundary so the retry and fallback logic
// never touches SDK types.
package llm

import (
	"context"
	"time"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

// FinishReason is the condition under which the model stopped generating
type FinishReason string

const (
	// FinishStop means generation completed normally
	FinishStop FinishReason = "stop"
	// FinishSafety means the response was blocked by the provider's safety filters
	FinishSafety FinishReason = "safety"
	// FinishOther covers every remaining provider-specific finish condition
	FinishOther FinishReason = "other"
)

// Response is the minimal view of a provider completion response: exactly
// the fields the client reads, nothing else.
type Response struct {
	Text         string
	FinishReason FinishReason
}

// Transport issues a single generation call against a concrete provider
// model. Implementations must apply the given timeout to the underlying
// request and surface provider failures as errors; classification of those
// errors is the client's job.
type Transport interface {
	Generate(ctx context.Context, model string, req *core.CompletionRequest, timeout time.Duration) (*Response, error)
}
