// Package factory builds the configured adapters: the completion client
// for the selected provider and the relational store for the selected
// backend.
package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/bedrock"
	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/gemini"
	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/llm"
	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/openai"
	"github.com/ishaanpearpie/email-productivity-agent/internal/config"
)

// LLMFactory creates completion clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{cfg: cfg, logger: logger}
}

// CreateClient builds the resilient completion client for the configured
// provider. The returned cleanup function releases provider resources.
func (f *LLMFactory) CreateClient() (*llm.Client, func() error, error) {
	llmCfg := f.cfg.GetLLM()

	transport, opts, cleanup, err := f.createTransport(llmCfg.Provider)
	if err != nil {
		return nil, nil, err
	}

	opts.MaxRetries = llmCfg.MaxRetries
	opts.Timeout = llmCfg.RequestTimeout

	return llm.NewClient(transport, opts, f.logger), cleanup, nil
}

func (f *LLMFactory) createTransport(provider string) (llm.Transport, llm.Options, func() error, error) {
	noop := func() error { return nil }

	switch provider {
	case "gemini":
		cfg := f.cfg.GetGemini()
		transport, err := gemini.NewTransport(cfg.APIKey, cfg.Temperature, cfg.TopP, cfg.MaxTokens, f.logger)
		if err != nil {
			return nil, llm.Options{}, nil, fmt.Errorf("failed to create Gemini transport: %w", err)
		}
		opts := llm.Options{Model: cfg.ModelName, FallbackModels: cfg.FallbackModels}
		return transport, opts, transport.Close, nil

	case "openai":
		cfg := f.cfg.GetOpenAI()
		transport, err := openai.NewTransport(cfg.APIKey, cfg.Temperature, cfg.TopP, cfg.MaxTokens, f.logger)
		if err != nil {
			return nil, llm.Options{}, nil, fmt.Errorf("failed to create OpenAI transport: %w", err)
		}
		opts := llm.Options{Model: cfg.ModelName, FallbackModels: cfg.FallbackModels}
		return transport, opts, noop, nil

	case "bedrock":
		cfg := f.cfg.GetBedrock()
		transport, err := bedrock.NewTransport(cfg.Region, cfg.Temperature, cfg.TopP, cfg.MaxTokens, f.logger)
		if err != nil {
			return nil, llm.Options{}, nil, fmt.Errorf("failed to create Bedrock transport: %w", err)
		}
		opts := llm.Options{Model: cfg.ModelID, FallbackModels: cfg.FallbackModels}
		return transport, opts, noop, nil

	default:
		return nil, llm.Options{}, nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
