package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/inbox"
	"github.com/ishaanpearpie/email-productivity-agent/internal/adapters/store"
	"github.com/ishaanpearpie/email-productivity-agent/internal/config"
	"github.com/ishaanpearpie/email-productivity-agent/internal/core"
	"github.com/ishaanpearpie/email-productivity-agent/internal/factory"
	"github.com/ishaanpearpie/email-productivity-agent/internal/logging"
	"github.com/ishaanpearpie/email-productivity-agent/internal/prompts"
	"github.com/ishaanpearpie/email-productivity-agent/internal/rules"
	"github.com/ishaanpearpie/email-productivity-agent/internal/service"
)

var (
	// Operations (exactly one per run)
	loadPath     = flag.String("load", "", "Load a mock inbox JSON file")
	processInbox = flag.Bool("process", false, "Process all unprocessed emails with the LLM")
	applyRules   = flag.Bool("rules", false, "Categorize uncategorized emails with keyword rules (no API calls)")
	chatQuery    = flag.String("chat", "", "Ask a question about the inbox")
	summarizeID  = flag.Int64("summarize", 0, "Summarize the email with this ID")
	replyID      = flag.Int64("reply", 0, "Generate a reply draft for the email with this ID")
	compose      = flag.Bool("compose", false, "Generate a new email draft (requires -to and -purpose)")
	refineID     = flag.Int64("refine", 0, "Refine the draft with this ID (requires -instructions)")
	listActions  = flag.Bool("actions", false, "List pending action items")
	showStats    = flag.Bool("stats", false, "Show inbox statistics")

	// Operation modifiers
	categorizeOnly = flag.Bool("categorize-only", false, "Skip action extraction while processing")
	limit          = flag.Int("limit", 0, "Limit the number of emails processed")
	instructions   = flag.String("instructions", "", "Extra instructions for reply or refine")
	recipient      = flag.String("to", "", "Recipient for -compose")
	purpose        = flag.String("purpose", "", "Purpose for -compose")
	keyPoints      = flag.String("key-points", "", "Key points for -compose")

	// Provider overrides
	provider     = flag.String("provider", "", "LLM provider (gemini, openai, bedrock)")
	geminiAPIKey = flag.String("gemini-api-key", "", "API key for Google Gemini")
	openaiAPIKey = flag.String("openai-api-key", "", "API key for OpenAI")
	sqlitePath   = flag.String("db", "", "SQLite database path")

	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.New()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	applyOverrides(cfg)

	st, err := factory.NewStoreFactory(cfg, logger).CreateStore()
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	ctx := context.Background()

	// Operations that never touch the LLM run without building a client.
	switch {
	case *loadPath != "":
		runLoad(ctx, logger, st, *loadPath)
		return
	case *applyRules:
		runRules(ctx, logger, st)
		return
	case *listActions:
		runListActions(ctx, logger, st)
		return
	case *showStats:
		runStats(ctx, logger, st)
		return
	}

	llmClient, cleanup, err := factory.NewLLMFactory(cfg, logger).CreateClient()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}()

	promptManager := prompts.NewManager(st, logger)
	if err := promptManager.EnsureDefaults(ctx); err != nil {
		logger.Fatal("Failed to seed default prompts", zap.Error(err))
	}

	processingCfg := cfg.GetProcessing()
	processor := service.NewEmailProcessor(st, promptManager, llmClient, logger, service.ProcessorOptions{
		CategoryBodyLimit: processingCfg.CategoryBodyLimit,
		Pacing:            processingCfg.Pacing,
	})
	drafter := service.NewDraftGenerator(st, promptManager, llmClient, logger)
	agent := service.NewChatAgent(st, llmClient, logger)

	switch {
	case *processInbox:
		runProcess(ctx, logger, processor)
	case *chatQuery != "":
		answer, err := agent.AnswerQuery(ctx, *chatQuery, "")
		if err != nil {
			logger.Fatal("Chat failed", zap.Error(err))
		}
		fmt.Printf("%s\n", answer)
	case *summarizeID > 0:
		summary, err := agent.SummarizeEmail(ctx, *summarizeID)
		if err != nil {
			logger.Fatal("Summarization failed", zap.Error(err))
		}
		fmt.Printf("%s\n", summary)
	case *replyID > 0:
		draft, err := drafter.GenerateReply(ctx, *replyID, *instructions)
		if err != nil {
			logger.Fatal("Reply generation failed", zap.Error(err))
		}
		printDraft(draft)
	case *compose:
		if *recipient == "" || *purpose == "" {
			logger.Fatal("-compose requires -to and -purpose")
		}
		draft, err := drafter.GenerateNewEmail(ctx, *recipient, *purpose, *keyPoints)
		if err != nil {
			logger.Fatal("Email generation failed", zap.Error(err))
		}
		printDraft(draft)
	case *refineID > 0:
		if *instructions == "" {
			logger.Fatal("-refine requires -instructions")
		}
		draft, err := drafter.RefineDraft(ctx, *refineID, *instructions)
		if err != nil {
			logger.Fatal("Draft refinement failed", zap.Error(err))
		}
		printDraft(draft)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// applyOverrides lets a handful of flags override file and env configuration
func applyOverrides(cfg *config.Config) {
	v := cfg.GetViper()
	if *provider != "" {
		v.Set("llm.provider", *provider)
	}
	if *geminiAPIKey != "" {
		v.Set("gemini.api_key", *geminiAPIKey)
	}
	if *openaiAPIKey != "" {
		v.Set("openai.api_key", *openaiAPIKey)
	}
	if *sqlitePath != "" {
		v.Set("storage.type", "sqlite")
		v.Set("storage.sqlite_path", *sqlitePath)
	}
}

func runLoad(ctx context.Context, logger *zap.Logger, st *store.Store, path string) {
	loaded, err := inbox.NewLoader(st, logger).Load(ctx, path)
	if err != nil {
		logger.Fatal("Failed to load mock inbox", zap.Error(err))
	}
	fmt.Printf("Loaded %d emails from %s\n", loaded, path)
}

func runRules(ctx context.Context, logger *zap.Logger, repo core.EmailRepository) {
	count, err := rules.NewCategorizer(repo, logger).CategorizeAll(ctx)
	if err != nil {
		logger.Fatal("Rule categorization failed", zap.Error(err))
	}
	fmt.Printf("Categorized %d emails using rules\n", count)
}

func runProcess(ctx context.Context, logger *zap.Logger, processor *service.EmailProcessor) {
	report, err := processor.ProcessInbox(ctx, *limit, *categorizeOnly, func(current, total int, subject string) {
		fmt.Printf("[%d/%d] %s\n", current, total, subject)
	})
	if err != nil {
		logger.Fatal("Inbox processing failed", zap.Error(err))
	}

	fmt.Printf("\nProcessed: %d\nFailed: %d\nTotal: %d\n", report.Processed, report.Failed, report.Total)
	for _, msg := range report.Errors {
		fmt.Printf("  %s\n", msg)
	}
}

func runListActions(ctx context.Context, logger *zap.Logger, repo core.EmailRepository) {
	agent := service.NewChatAgent(repo, nil, logger)
	pending, err := agent.ListActionItems(ctx)
	if err != nil {
		logger.Fatal("Failed to list action items", zap.Error(err))
	}
	if len(pending) == 0 {
		fmt.Println("No pending action items")
		return
	}
	for _, entry := range pending {
		line := fmt.Sprintf("[%s] %s", entry.Item.Priority, entry.Item.Task)
		if entry.Item.Deadline != "" {
			line += fmt.Sprintf(" (due %s)", entry.Item.Deadline)
		}
		if entry.Email != nil {
			line += fmt.Sprintf(" [from %s]", entry.Email.Sender)
		}
		fmt.Println(line)
	}
}

func runStats(ctx context.Context, logger *zap.Logger, repo core.EmailRepository) {
	stats, err := repo.GetStats(ctx)
	if err != nil {
		logger.Fatal("Failed to load stats", zap.Error(err))
	}

	fmt.Printf("Total emails: %d\n", stats.TotalEmails)
	fmt.Printf("Pending action items: %d\n", stats.PendingActions)
	fmt.Printf("Drafts: %d\n", stats.TotalDrafts)
	fmt.Println("Categories:")
	for _, category := range append(core.Categories(), core.CategoryUncategorized) {
		if count, ok := stats.CategoryCounts[category]; ok {
			fmt.Printf("  %s: %d\n", category, count)
		}
	}
}

func printDraft(draft *core.Draft) {
	fmt.Printf("Draft #%d\nSubject: %s\n%s\n%s\n", draft.ID, draft.Subject, strings.Repeat("-", 40), draft.Body)
}
