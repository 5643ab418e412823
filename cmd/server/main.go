package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"selfsight.app/journal/internal/analysis"
	"selfsight.app/journal/internal/api"
	"selfsight.app/journal/internal/config"
	"selfsight.app/journal/internal/core"
	"selfsight.app/journal/internal/logger"
	"selfsight.app/journal/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "selfsight",
		Short:         "Journaling service with AI-assisted entry analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(keyringCmd())
	rootCmd.AddCommand(inspectExportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// newTextGenerator returns a nil generator when no API key is configured,
// which makes every analysis fall back to the heuristic.
func newTextGenerator() (analysis.TextGenerator, func(), error) {
	if config.AppConfig.GeminiAPIKey == "" {
		logger.Warn("No Gemini API key configured, analysis runs offline only")
		return nil, func() {}, nil
	}
	llm, err := core.NewLLMService(config.AppConfig.GeminiAPIKey, config.AppConfig.LLMRequestsPerMinute)
	if err != nil {
		return nil, nil, err
	}
	return llm, llm.Close, nil
}

func runServer() error {
	if err := config.LoadConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Init(logger.Config{Level: config.AppConfig.LogLevel, Dir: config.AppConfig.LogDir}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	dbStore, err := store.NewSQLStore(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer dbStore.Close()

	cache, err := store.NewCache(config.AppConfig.CachePath)
	if err != nil {
		logger.Fatal("Failed to initialize local cache", "error", err)
	}
	defer cache.Close()

	gen, closeGen, err := newTextGenerator()
	if err != nil {
		logger.Fatal("Failed to initialize LLM service", "error", err)
	}
	defer closeGen()

	analyzer := analysis.NewAnalyzer(gen, config.AppConfig.AnalysisModel)
	journalService := core.NewJournalService(dbStore, cache, analyzer, config.AppConfig.AnalysisConcurrency)
	recommendationService, err := core.NewRecommendationService(dbStore, cache, journalService, gen, config.AppConfig.RecommendationModel)
	if err != nil {
		logger.Fatal("Failed to initialize recommendation service", "error", err)
	}
	userService := core.NewUserService(dbStore, cache)

	apiHandler := api.NewAPIHandler(journalService, recommendationService, userService)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // batch analysis makes several LLM calls
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting server. Press Ctrl+C to quit.", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Could not listen", "addr", serverAddr, "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting gracefully")
	return nil
}
