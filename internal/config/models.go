package config

import "time"

// LLMConfig represents the provider-independent LLM settings
type LLMConfig struct {
	Provider       string
	MaxRetries     int
	RequestTimeout time.Duration
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey         string
	ModelName      string
	FallbackModels []string
	MaxTokens      int
	Temperature    float32
	TopP           float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey         string
	ModelName      string
	FallbackModels []string
	MaxTokens      int
	Temperature    float32
	TopP           float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region         string
	ModelID        string
	FallbackModels []string
	MaxTokens      int
	Temperature    float32
	TopP           float32
}

// StorageConfig represents the relational store configuration
type StorageConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// ProcessingConfig represents batch processing settings
type ProcessingConfig struct {
	Pacing            time.Duration
	CategoryBodyLimit int
	MaxBodySize       int
}

// IntakeConfig represents the SMTP intake settings
type IntakeConfig struct {
	Enabled       bool
	ListenAddress string
	RuleTagging   bool
}

// InboxConfig represents mock inbox loading settings
type InboxConfig struct {
	MockPath    string
	AutoProcess bool
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:       c.GetString("llm.provider"),
		MaxRetries:     c.GetInt("llm.max_retries"),
		RequestTimeout: c.GetDuration("llm.request_timeout"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:         c.GetString("gemini.api_key"),
		ModelName:      c.GetString("gemini.model_name"),
		FallbackModels: c.GetStringSlice("gemini.fallback_models"),
		MaxTokens:      c.GetInt("gemini.max_tokens"),
		Temperature:    float32(c.GetFloat64("gemini.temperature")),
		TopP:           float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:         c.GetString("openai.api_key"),
		ModelName:      c.GetString("openai.model_name"),
		FallbackModels: c.GetStringSlice("openai.fallback_models"),
		MaxTokens:      c.GetInt("openai.max_tokens"),
		Temperature:    float32(c.GetFloat64("openai.temperature")),
		TopP:           float32(c.GetFloat64("openai.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:         c.GetString("bedrock.region"),
		ModelID:        c.GetString("bedrock.model_id"),
		FallbackModels: c.GetStringSlice("bedrock.fallback_models"),
		MaxTokens:      c.GetInt("bedrock.max_tokens"),
		Temperature:    float32(c.GetFloat64("bedrock.temperature")),
		TopP:           float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetStorage returns the storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Type:       c.GetString("storage.type"),
		SQLitePath: c.GetString("storage.sqlite_path"),
		MySQLDSN:   c.GetString("storage.mysql_dsn"),
	}
}

// GetProcessing returns the batch processing configuration
func (c *Config) GetProcessing() ProcessingConfig {
	return ProcessingConfig{
		Pacing:            c.GetDuration("processing.pacing"),
		CategoryBodyLimit: c.GetInt("processing.category_body_limit"),
		MaxBodySize:       c.GetInt("processing.max_body_size"),
	}
}

// GetIntake returns the SMTP intake configuration
func (c *Config) GetIntake() IntakeConfig {
	return IntakeConfig{
		Enabled:       c.GetBool("intake.enabled"),
		ListenAddress: c.GetString("intake.listen_address"),
		RuleTagging:   c.GetBool("intake.rule_tagging"),
	}
}

// GetInbox returns the mock inbox configuration
func (c *Config) GetInbox() InboxConfig {
	return InboxConfig{
		MockPath:    c.GetString("inbox.mock_path"),
		AutoProcess: c.GetBool("inbox.auto_process"),
	}
}
