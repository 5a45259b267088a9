package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/llm"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

const defaultSystemInstruction = "You are an intelligent email processing assistant."

// Transport adapts the Google Gemini SDK to the llm.Transport interface.
// Safety filters are fully relaxed: business email routinely trips them.
type Transport struct {
	client      *genai.Client
	temperature float32
	topP        float32
	maxTokens   int
	logger      *zap.Logger
}

// NewTransport creates a Gemini transport
func NewTransport(apiKey string, temperature, topP float32, maxTokens int, logger *zap.Logger) (*Transport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Transport{
		client:      client,
		temperature: temperature,
		topP:        topP,
		maxTokens:   maxTokens,
		logger:      logger,
	}, nil
}

// Close closes the underlying Gemini client
func (t *Transport) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}

// Generate issues a single generation call against the named model
func (t *Transport) Generate(ctx context.Context, model string, req *core.CompletionRequest, timeout time.Duration) (*llm.Response, error) {
	gm := t.client.GenerativeModel(model)

	temperature := t.temperature
	if req.HasTemperature {
		temperature = req.Temperature
	}
	maxTokens := t.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	gm.SetTemperature(temperature)
	gm.SetTopP(t.topP)
	gm.SetMaxOutputTokens(int32(maxTokens))

	gm.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}

	instruction := req.SystemInstruction
	if instruction == "" {
		instruction = defaultSystemInstruction
	}
	gm.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(instruction)},
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := gm.GenerateContent(callCtx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	return adaptResponse(resp), nil
}

// adaptResponse narrows a genai response to the fields the caller reads
func adaptResponse(resp *genai.GenerateContentResponse) *llm.Response {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason == genai.BlockReasonSafety {
		return &llm.Response{FinishReason: llm.FinishSafety}
	}
	if len(resp.Candidates) == 0 {
		return &llm.Response{FinishReason: llm.FinishOther}
	}

	candidate := resp.Candidates[0]
	finish := llm.FinishStop
	switch candidate.FinishReason {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified:
		finish = llm.FinishStop
	case genai.FinishReasonSafety:
		finish = llm.FinishSafety
	default:
		finish = llm.FinishOther
	}

	var text string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
	}

	return &llm.Response{Text: text, FinishReason: finish}
}
