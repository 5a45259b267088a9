package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/inbox"
	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/intake"
	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/llm"
	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/store"
	"github.com/ishaanpearpie/email-productivity-agent/internal/config"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
	"github.com/ishaanpearpie/email-productivity-agent/internal/factory"
	"github.com/ishaanpearpie/email-productivity-agent/internal/logging"
	"github.com/ishaanpearpie/email-productivity-agent/internal/prompts"
	"github.com/ishaanpearpie/email-productivity-agent/internal/rules"
	"github.com/ishaanpearpie/email-productivity-agent/internal/service"
)

// LLMCleanup releases the completion client's provider resources
type LLMCleanup func() error

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}

	// Register store and its repository interface
	if err := container.Provide(func(f *factory.StoreFactory) (*store.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *store.Store) core.EmailRepository {
		return s
	}); err != nil {
		return nil, err
	}

	// Register completion client
	if err := container.Provide(func(f *factory.LLMFactory) (*llm.Client, LLMCleanup, error) {
		client, cleanup, err := f.CreateClient()
		return client, LLMCleanup(cleanup), err
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *llm.Client) core.CompletionClient {
		return c
	}); err != nil {
		return nil, err
	}

	// Register prompt manager
	if err := container.Provide(prompts.NewManager); err != nil {
		return nil, err
	}
	if err := container.Provide(func(m *prompts.Manager) core.PromptProvider {
		return m
	}); err != nil {
		return nil, err
	}

	// Register processing options
	if err := container.Provide(func(cfg *config.Config) service.ProcessorOptions {
		processingCfg := cfg.GetProcessing()
		return service.ProcessorOptions{
			CategoryBodyLimit: processingCfg.CategoryBodyLimit,
			Pacing:            processingCfg.Pacing,
		}
	}); err != nil {
		return nil, err
	}

	// Register services
	if err := container.Provide(service.NewEmailProcessor); err != nil {
		return nil, err
	}
	if err := container.Provide(service.NewDraftGenerator); err != nil {
		return nil, err
	}
	if err := container.Provide(service.NewChatAgent); err != nil {
		return nil, err
	}

	// Register rule categorizer and inbox loader
	if err := container.Provide(rules.NewCategorizer); err != nil {
		return nil, err
	}
	if err := container.Provide(inbox.NewLoader); err != nil {
		return nil, err
	}

	// Register SMTP intake
	if err := container.Provide(func(repo core.EmailRepository, cfg *config.Config, logger *zap.Logger) *intake.Server {
		intakeCfg := cfg.GetIntake()
		return intake.NewServer(repo, logger, intakeCfg.ListenAddress, intakeCfg.RuleTagging)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
