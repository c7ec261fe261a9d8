package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/tt67wq/xianyu-spider/internal/analyzer"
	"github.com/tt67wq/xianyu-spider/internal/database"
	"github.com/tt67wq/xianyu-spider/internal/ingest"
	"github.com/tt67wq/xianyu-spider/internal/models"
	"github.com/tt67wq/xianyu-spider/internal/output"
	"github.com/tt67wq/xianyu-spider/internal/spider"
	"github.com/tt67wq/xianyu-spider/pkg/config"
	"github.com/tt67wq/xianyu-spider/utils"
)

// App is the main application structure holding all dependencies.
type App struct {
	Config *config.Config
	Repo   *database.DBRepository
}

// New creates a new application instance with all initial settings.
func New() *App {
	cfg := config.LoadConfig("config.yml")
	repo := database.InitDB(cfg.Database.Path)
	return &App{
		Config: cfg,
		Repo:   repo,
	}
}

// SearchOptions carries the per-invocation settings of the search task.
type SearchOptions struct {
	Keyword    string
	MaxPages   int
	Format     string
	OutputFile string
	// Prompt, when non-empty, runs an LLM analysis over the scraped
	// records after they are persisted.
	Prompt string
}

// RunSearch executes one scrape session, persists the new records and renders
// the results. Invalid options are rejected before the browser launches.
func (a *App) RunSearch(opts SearchOptions) {
	if opts.Keyword == "" {
		log.Fatalf("A search keyword is required (-keyword)")
	}
	if err := a.Config.ValidateMaxPages(opts.MaxPages); err != nil {
		log.Fatalf("Invalid page count: %v", err)
	}
	format := opts.Format
	if format == "" {
		format = a.Config.Output.DefaultFormat
	}
	if err := config.ValidateFormat(format); err != nil {
		log.Fatalf("Invalid output format: %v", err)
	}

	log.Printf("--- Starting search for %q (up to %d pages) ---", opts.Keyword, opts.MaxPages)

	session := spider.NewSession(a.Config.Spider)
	records, err := session.Run(opts.Keyword, opts.MaxPages)
	if err != nil {
		if len(records) == 0 {
			log.Fatalf("Search session failed: %v", err)
		}
		// Partial results beat total failure: keep what the observer
		// collected before the session broke.
		log.Printf("WARN: session failed after collecting %d records: %v", len(records), err)
	}
	log.Printf("Session finished with %d records", len(records))

	sink := ingest.NewSink(a.Repo)
	newCount, newIDs := sink.Ingest(records)
	log.Printf("Saved %d new records (skipped %d duplicates)", newCount, len(records)-newCount)
	if newCount > 0 {
		log.Printf("New record ids: %v", newIDs)
	}

	if err := a.renderRecords(records, format, opts.OutputFile); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}

	if opts.Prompt != "" {
		a.RunAnalyze(opts.Prompt, len(records))
	}
}

func (a *App) renderRecords(records []models.ProductRecord, format, outputFile string) error {
	if outputFile == "" {
		return output.Write(os.Stdout, format, records, a.Config.Output)
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()
	if err := output.Write(f, format, records, a.Config.Output); err != nil {
		return err
	}
	log.Printf("Results written to %s", outputFile)
	return nil
}

// RunAnalyze feeds the most recently stored products plus the user's free-form
// requirement to the configured LLM providers, trying fallbacks in order.
func (a *App) RunAnalyze(prompt string, limit int) {
	if prompt == "" {
		log.Fatalf("An analysis requirement is required (-prompt)")
	}
	if limit < 1 {
		limit = 20
	}

	clients, err := a.buildAnalyzerClients()
	if err != nil {
		log.Fatalf("Analyzer not available: %v", err)
	}

	products, err := a.Repo.GetRecentProducts(limit)
	if err != nil {
		log.Fatalf("Failed to load products for analysis: %v", err)
	}
	if len(products) == 0 {
		log.Println("No stored products to analyze. Run a search first.")
		return
	}

	fullPrompt, err := analyzer.BuildPrompt(products, prompt)
	if err != nil {
		log.Fatalf("Failed to build analysis prompt: %v", err)
	}

	log.Printf("Analyzing %d products...", len(products))
	result, err := tryAnalyze(clients, fullPrompt)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	fmt.Println(result)
}

// buildAnalyzerClients assembles the primary provider followed by the
// configured fallbacks, in order.
func (a *App) buildAnalyzerClients() ([]analyzer.Analyzer, error) {
	providerMap := make(map[string]config.ProviderConfig)
	for _, p := range a.Config.Analyzer.Providers {
		providerMap[p.Name] = p
	}

	var clients []analyzer.Analyzer
	primary, ok := providerMap[a.Config.Analyzer.PrimaryProvider]
	if !ok {
		return nil, fmt.Errorf("primary provider %q not found in config", a.Config.Analyzer.PrimaryProvider)
	}
	clients = append(clients, analyzer.NewOpenAICompatibleClient(primary.ApiURL, primary.ApiKey, primary.Model))

	for _, name := range a.Config.Analyzer.FallbackProviders {
		fallback, ok := providerMap[name]
		if !ok {
			log.Printf("WARN: fallback provider %q not found in config, skipping", name)
			continue
		}
		clients = append(clients, analyzer.NewOpenAICompatibleClient(fallback.ApiURL, fallback.ApiKey, fallback.Model))
	}
	return clients, nil
}

// tryAnalyze streams from the first provider that works, echoing chunks to
// the console as they arrive.
func tryAnalyze(clients []analyzer.Analyzer, prompt string) (string, error) {
	var lastErr error
	for i, client := range clients {
		stream, err := client.AnalyzeStream(context.Background(), prompt)
		if err != nil {
			lastErr = err
			log.Printf("Provider #%d failed: %v", i+1, err)
			continue
		}

		var builder strings.Builder
		for chunk := range stream {
			fmt.Print(chunk)
			builder.WriteString(chunk)
		}
		fmt.Println()
		return builder.String(), nil
	}
	return "", fmt.Errorf("all providers failed, last error: %w", lastErr)
}

// RunCheck prints environment and store diagnostics.
func (a *App) RunCheck() {
	fmt.Printf("Database path:   %s\n", a.Config.Database.Path)
	if _, err := os.Stat(a.Config.Database.Path); err == nil {
		fmt.Println("Database exists: yes")
	} else {
		fmt.Println("Database exists: no")
	}
	count, err := a.Repo.CountProducts()
	if err != nil {
		fmt.Printf("Record count:    error (%v)\n", err)
	} else {
		fmt.Printf("Record count:    %d\n", count)
	}
	fmt.Printf("Logical CPUs:    %d\n", utils.LogicalCPUCount())
	fmt.Printf("Headless:        %v\n", a.Config.Spider.Headless)
	fmt.Printf("Request delay:   %.1fs\n", a.Config.Spider.RequestDelay)
	fmt.Printf("Max pages limit: %d\n", a.Config.Spider.MaxPagesLimit)
	fmt.Printf("Analyzer providers: %d\n", len(a.Config.Analyzer.Providers))
}
