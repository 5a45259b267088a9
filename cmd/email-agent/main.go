package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/inbox"
	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/intake"
	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/store"
	"github.com/ishaanpearpie/email-productivity-agent/internal/config"
	"github.com/ishaanpearpie/email-productivity-agent/internal/di"
	"github.com/ishaanpearpie/email-productivity-agent/internal/prompts"
	"github.com/ishaanpearpie/email-productivity-agent/internal/service"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	st *store.Store,
	promptManager *prompts.Manager,
	loader *inbox.Loader,
	processor *service.EmailProcessor,
	intakeServer *intake.Server,
	llmCleanup di.LLMCleanup,
) error {
	defer logger.Sync()

	ctx := context.Background()

	if err := promptManager.EnsureDefaults(ctx); err != nil {
		logger.Error("Failed to seed default prompts", zap.Error(err))
		return err
	}

	inboxCfg := cfg.GetInbox()
	if inboxCfg.MockPath != "" {
		loaded, err := loader.Load(ctx, inboxCfg.MockPath)
		if err != nil {
			// A previously loaded inbox is not fatal for the daemon.
			logger.Warn("Mock inbox not loaded", zap.Error(err))
		} else {
			logger.Info("Mock inbox loaded", zap.Int("emails", loaded))
		}
	}

	if inboxCfg.AutoProcess {
		report, err := processor.ProcessInbox(ctx, 0, false, nil)
		if err != nil {
			logger.Error("Inbox processing failed", zap.Error(err))
		} else {
			logger.Info("Inbox processed",
				zap.Int("processed", report.Processed),
				zap.Int("failed", report.Failed),
				zap.Int("total", report.Total))
		}
	}

	intakeCfg := cfg.GetIntake()
	if intakeCfg.Enabled {
		if err := intakeServer.Start(); err != nil {
			logger.Fatal("Failed to start SMTP intake", zap.Error(err))
			return err
		}
	} else {
		logger.Info("SMTP intake disabled")
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if intakeCfg.Enabled {
		if err := intakeServer.Stop(); err != nil {
			logger.Error("Failed to stop SMTP intake", zap.Error(err))
		}
	}

	if err := llmCleanup(); err != nil {
		logger.Error("Failed to close LLM client", zap.Error(err))
	}

	if err := st.Close(); err != nil {
		logger.Error("Failed to close store", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
