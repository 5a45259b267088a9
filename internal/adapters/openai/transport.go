package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/llm"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

const defaultSystemInstruction = "You are an intelligent email processing assistant."

// Transport adapts the OpenAI chat completion API to the llm.Transport
// interface
type Transport struct {
	client      *openai.Client
	temperature float32
	topP        float32
	maxTokens   int
	logger      *zap.Logger
}

// NewTransport creates an OpenAI transport
func NewTransport(apiKey string, temperature, topP float32, maxTokens int, logger *zap.Logger) (*Transport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	return &Transport{
		client:      openai.NewClient(apiKey),
		temperature: temperature,
		topP:        topP,
		maxTokens:   maxTokens,
		logger:      logger,
	}, nil
}

// Generate issues a single chat completion call against the named model
func (t *Transport) Generate(ctx context.Context, model string, req *core.CompletionRequest, timeout time.Duration) (*llm.Response, error) {
	temperature := t.temperature
	if req.HasTemperature {
		temperature = req.Temperature
	}
	maxTokens := t.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	instruction := req.SystemInstruction
	if instruction == "" {
		instruction = defaultSystemInstruction
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := t.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        t.topP,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return &llm.Response{FinishReason: llm.FinishOther}, nil
	}

	choice := resp.Choices[0]
	finish := llm.FinishStop
	if choice.FinishReason == openai.FinishReasonContentFilter {
		finish = llm.FinishSafety
	} else if choice.FinishReason != openai.FinishReasonStop && choice.FinishReason != "" {
		finish = llm.FinishOther
	}

	return &llm.Response{Text: choice.Message.Content, FinishReason: finish}, nil
}
