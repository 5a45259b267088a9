package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

const (
	// Requests this small are treated as interactive categorization calls:
	// one attempt, short timeout, so a flaky upstream cannot stall the hot
	// path for the full retry budget.
	shortRequestTokens  = 50
	shortRequestTimeout = 10 * time.Second

	initialBackoff = 1 * time.Second

	// Added on top of a provider-suggested retry delay
	retryDelayBuffer = 500 * time.Millisecond

	maxDetailLen = 200
)

// retryDelayPattern matches a provider-suggested retry delay embedded in an
// error message, e.g. "Please retry in 7.5s" or `"retryDelay":"7s"`.
var retryDelayPattern = regexp.MustCompile(`(?i)retry[^0-9]{0,12}(\d+(?:\.\d+)?)`)

// Options configures a Client
type Options struct {
	// Model is the preferred model identifier
	Model string
	// FallbackModels are tried in order when the active model is unavailable
	FallbackModels []string
	// MaxRetries is the attempt budget for non-interactive requests
	MaxRetries int
	// Timeout is the per-attempt request timeout
	Timeout time.Duration
}

// Client wraps a Transport with timeout, retry, exponential backoff,
// rate-limit recovery and model fallback. Complete never returns a Go
// error: every path terminates in a CompletionResult.
//
// A Client is meant for a single caller at a time; the cached model index
// is not guarded by a lock.
type Client struct {
	transport  Transport
	candidates []string
	active     int
	maxRetries int
	timeout    time.Duration
	logger     *zap.Logger

	// sleep is replaceable in tests
	sleep func(time.Duration)
}

// NewClient creates a resilient completion client over the given transport
func NewClient(transport Transport, opts Options, logger *zap.Logger) *Client {
	candidates := make([]string, 0, 1+len(opts.FallbackModels))
	if opts.Model != "" {
		candidates = append(candidates, opts.Model)
	}
	for _, m := range opts.FallbackModels {
		if m != opts.Model {
			candidates = append(candidates, m)
		}
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		transport:  transport,
		candidates: candidates,
		maxRetries: maxRetries,
		timeout:    timeout,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Model returns the currently active model identifier
func (c *Client) Model() string {
	if c.active >= len(c.candidates) {
		return ""
	}
	return c.candidates[c.active]
}

// Complete issues a completion call with the configured resilience policy
func (c *Client) Complete(ctx context.Context, req *core.CompletionRequest) *core.CompletionResult {
	attempts := c.maxRetries
	timeout := c.timeout
	if req.MaxTokens > 0 && req.MaxTokens <= shortRequestTokens {
		attempts = 1
		if timeout > shortRequestTimeout {
			timeout = shortRequestTimeout
		}
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if c.active >= len(c.candidates) {
			return failure(core.FailureTransportError, "no usable model candidates")
		}
		model := c.candidates[c.active]

		resp, err := c.transport.Generate(ctx, model, req, timeout)
		if err == nil {
			return c.classifyResponse(resp)
		}
		lastErr = err
		msg := err.Error()

		switch {
		case isModelNotFound(msg):
			// The cached model vanished upstream: invalidate it and resume
			// selection from the next candidate without spending an attempt.
			c.logger.Warn("Model unavailable, falling back",
				zap.String("model", model),
				zap.Error(err))
			c.active++
			if c.active < len(c.candidates) {
				attempt--
				continue
			}
			return failure(core.FailureTransportError, truncateDetail(msg))

		case isRateLimited(msg):
			if attempt == attempts-1 {
				// No attempts left: report the quota failure directly
				// instead of exhausting the loop.
				return failure(core.FailureRateLimited, truncateDetail(msg))
			}
			wait := backoff
			if suggested, ok := parseRetryDelay(msg); ok {
				wait = suggested + retryDelayBuffer
			}
			c.logger.Info("Rate limited, backing off",
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", attempts))
			c.sleep(wait)
			backoff *= 2

		default:
			c.logger.Warn("Completion attempt failed",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", attempts),
				zap.Error(err))
			if attempt < attempts-1 {
				c.sleep(backoff)
				backoff *= 2
			}
		}
	}

	detail := "max retries exceeded"
	if lastErr != nil {
		detail = truncateDetail(lastErr.Error())
	}
	return failure(core.FailureExhaustedRetries, detail)
}

// classifyResponse maps a transport response onto a result. Safety blocks
// and empty finishes are terminal for the call, not retried.
func (c *Client) classifyResponse(resp *Response) *core.CompletionResult {
	text := strings.TrimSpace(resp.Text)
	if text != "" {
		return &core.CompletionResult{Text: text}
	}
	if resp.FinishReason == FinishSafety {
		return failure(core.FailureSafetyBlocked, "response blocked by safety filters")
	}
	return failure(core.FailureEmptyResponse, "empty response from model")
}

func failure(reason core.FailureReason, detail string) *core.CompletionResult {
	return &core.CompletionResult{Reason: reason, Detail: detail}
}

func isRateLimited(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "429") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "resource exhausted") ||
		strings.Contains(lower, "resource_exhausted")
}

func isModelNotFound(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not found") ||
		strings.Contains(lower, "404")
}

// parseRetryDelay extracts a provider-suggested delay, in seconds, from an
// error message
func parseRetryDelay(msg string) (time.Duration, bool) {
	m := retryDelayPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

func truncateDetail(msg string) string {
	if len(msg) <= maxDetailLen {
		return msg
	}
	return msg[:maxDetailLen] + "..."
}
