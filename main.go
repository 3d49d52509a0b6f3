package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"lifelog-assistant/db"
	"lifelog-assistant/llm"
	"lifelog-assistant/organizer"
	"lifelog-assistant/session"
	"lifelog-assistant/store"
	"lifelog-assistant/utils"
)

var (
	version = "0.1.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Lifelog Assistant v%s\n", version)
		os.Exit(0)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.GetLogPath())
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting Lifelog Assistant v%s", version)

	// Load or create default configuration
	actualConfigPath := *configPath
	if actualConfigPath == "" {
		actualConfigPath, err = utils.EnsureDefaultConfig()
		if err != nil {
			logger.Error("Failed to create default config: %v", err)
			os.Exit(1)
		}
		logger.Info("Using config file: %s", actualConfigPath)
	}

	config, err := utils.LoadConfig(actualConfigPath)
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Initialize database
	database, err := db.New(config.Data.DBPath)
	if err != nil {
		logger.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	logger.Info("Database initialized: %s", config.Data.DBPath)

	// Build the active inference provider
	provider, err := buildProvider(config)
	if err != nil {
		logger.Error("Failed to build provider: %v", err)
		os.Exit(1)
	}
	if err := provider.ValidateConfig(); err != nil {
		logger.Warn("Provider %s configuration incomplete: %v", provider.Name(), err)
	}

	// Restore the taxonomy and the session state
	registry, err := session.RestoreTaxonomy(database)
	if err != nil {
		logger.Error("Failed to restore taxonomy: %v", err)
		os.Exit(1)
	}

	sess := session.New(session.Deps{
		Chat:      provider,
		Organizer: organizer.New(provider, logger),
		Taxonomy:  registry,
		Entries:   store.NewEntryStore(),
		State:     database,
		Audit:     database,
		Logger:    logger,
	})
	if err := sess.Load(); err != nil {
		logger.Error("Failed to load session state: %v", err)
		os.Exit(1)
	}

	logger.Info("Session ready, provider: %s", provider.Name())
	runLoop(sess, logger)
	logger.Info("Application stopped")
}

// buildProvider creates the inference provider named by the configuration
func buildProvider(config *utils.Config) (llm.Provider, error) {
	pc, ok := config.LLMProviders[config.ActiveProvider]
	if !ok {
		return nil, fmt.Errorf("active provider %q not configured", config.ActiveProvider)
	}

	providerConfig := llm.Config{
		ProviderName: pc.DisplayName,
		APIKey:       pc.APIKey,
		BaseURL:      pc.BaseURL,
		Model:        pc.DefaultModel,
		MaxTokens:    pc.MaxTokens,
		Temperature:  pc.Temperature,
	}

	switch config.ActiveProvider {
	case "ollama":
		return llm.NewOllamaProvider(providerConfig)
	default:
		return llm.NewOpenAIProvider(providerConfig)
	}
}

// runLoop drives the interactive session: plain lines are submitted as
// turns, slash commands control the session
func runLoop(sess *session.Session, logger *utils.Logger) {
	fmt.Println("Tell me about your day. Commands: /entries /undo /cancel /quit")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit":
			return
		case "/cancel":
			sess.Cancel()
			fmt.Println("(cancelled)")
		case "/entries":
			printEntries(sess)
		case "/undo":
			undoLast(sess)
		default:
			submit(sess, logger, line)
		}
	}
}

// submit runs one turn in the background so /cancel stays responsive while
// the inference calls are in flight
func submit(sess *session.Session, logger *utils.Logger, text string) {
	utils.SafeGo(logger, "submit turn", func() {
		result, err := sess.Submit(text)
		if err != nil {
			fmt.Printf("%v\n> ", err)
			return
		}
		printResult(result)
		fmt.Print("> ")
	})
}

func printResult(result *session.TurnResult) {
	if result.Cancelled {
		fmt.Println("(turn cancelled)")
		return
	}
	if result.Reply != "" {
		fmt.Println(result.Reply)
	}
	for _, e := range result.Entries {
		fmt.Printf("  + [%s] %s %s\n", e.Category, e.Date, e.Event)
	}
}

func printEntries(sess *session.Session) {
	entries := sess.Entries()
	if len(entries) == 0 {
		fmt.Println("(no entries yet)")
		return
	}
	for _, e := range entries {
		fmt.Printf("  [%s] %s %s (%s)\n", e.Category, e.Date, e.Event, e.ID[:8])
	}
}

// undoLast revokes the most recent un-revoked system message and its entries
func undoLast(sess *session.Session) {
	msgs := sess.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Role == session.RoleSystem && !msg.Revoked && len(msg.RelatedEntryIDs) > 0 {
			if err := sess.Revoke(msg.ID, msg.RelatedEntryIDs); err != nil {
				fmt.Printf("undo failed: %v\n", err)
				return
			}
			fmt.Printf("(removed %d record(s))\n", len(msg.RelatedEntryIDs))
			return
		}
	}
	fmt.Println("(nothing to undo)")
}
