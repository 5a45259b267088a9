package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/llm"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
)

// Transport adapts Amazon Bedrock to the llm.Transport interface. The
// request payload and response shape depend on the model family.
type Transport struct {
	client      *bedrockruntime.Client
	temperature float32
	topP        float32
	maxTokens   int
	logger      *zap.Logger
}

// NewTransport creates a Bedrock transport for the given AWS region
func NewTransport(region string, temperature, topP float32, maxTokens int, logger *zap.Logger) (*Transport, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &Transport{
		client:      bedrockruntime.NewFromConfig(awsCfg),
		temperature: temperature,
		topP:        topP,
		maxTokens:   maxTokens,
		logger:      logger,
	}, nil
}

// Generate issues a single InvokeModel call against the named model
func (t *Transport) Generate(ctx context.Context, model string, req *core.CompletionRequest, timeout time.Duration) (*llm.Response, error) {
	temperature := t.temperature
	if req.HasTemperature {
		temperature = req.Temperature
	}
	maxTokens := t.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	prompt := req.Prompt
	if req.SystemInstruction != "" {
		prompt = req.SystemInstruction + "\n\n" + prompt
	}

	payload, err := buildPayload(model, prompt, maxTokens, temperature, t.topP)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := t.client.InvokeModel(callCtx, &bedrockruntime.InvokeModelInput{
		ModelId:     &model,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := parseResponse(model, resp.Body)
	if err != nil {
		return nil, err
	}

	return &llm.Response{Text: text, FinishReason: llm.FinishStop}, nil
}

func isAnthropicModel(model string) bool {
	return strings.HasPrefix(model, "anthropic.")
}

func isTitanModel(model string) bool {
	return strings.HasPrefix(model, "amazon.titan")
}

func buildPayload(model, prompt string, maxTokens int, temperature, topP float32) ([]byte, error) {
	switch {
	case isAnthropicModel(model):
		return json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": maxTokens,
			"temperature":          temperature,
			"top_p":                topP,
		})
	case isTitanModel(model):
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": maxTokens,
				"temperature":   temperature,
				"topP":          topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  maxTokens,
			"temperature": temperature,
			"top_p":       topP,
		})
	}
}

func parseResponse(model string, body []byte) (string, error) {
	switch {
	case isAnthropicModel(model):
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil

	case isTitanModel(model):
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", nil
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal model response: %w", err)
		}
		for _, candidate := range []string{genericResp.Output, genericResp.Text, genericResp.Response} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return string(body), nil
	}
}
