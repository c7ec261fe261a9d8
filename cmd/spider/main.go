package main

import (
	"flag"
	"log"

	"github.com/tt67wq/xianyu-spider/internal/app"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	task := flag.String("task", "search", "Task to run: search, analyze, or check")
	keyword := flag.String("keyword", "", "Search keyword")
	pages := flag.Int("pages", 1, "Maximum number of result pages to scrape")
	format := flag.String("format", "", "Output format: table, json, or csv (default from config)")
	outFile := flag.String("output", "", "Write results to this file instead of stdout")
	prompt := flag.String("prompt", "", "Free-form analysis requirement for the LLM")
	limit := flag.Int("limit", 20, "Number of stored products to feed the analyzer")
	flag.Parse()

	application := app.New()
	defer application.Repo.Close()

	log.Printf("Running task: %s", *task)

	switch *task {
	case "search":
		application.RunSearch(app.SearchOptions{
			Keyword:    *keyword,
			MaxPages:   *pages,
			Format:     *format,
			OutputFile: *outFile,
			Prompt:     *prompt,
		})

	case "analyze":
		application.RunAnalyze(*prompt, *limit)

	case "check":
		application.RunCheck()

	default:
		log.Fatalf("Unknown task: %s.", *task)
	}
}
