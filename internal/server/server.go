package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/tt67wq/xianyu-spider/internal/database"
	"github.com/tt67wq/xianyu-spider/internal/ingest"
	"github.com/tt67wq/xianyu-spider/internal/spider"
	"github.com/tt67wq/xianyu-spider/pkg/config"
)

// SearchResponse is the JSON body returned by the /search endpoint.
type SearchResponse struct {
	Status       string  `json:"status"`
	Keyword      string  `json:"keyword"`
	TotalResults int     `json:"total_results"`
	NewRecords   int     `json:"new_records"`
	NewRecordIDs []int64 `json:"new_record_ids"`
	Detail       string  `json:"detail,omitempty"`
}

// Start runs the HTTP API. Each /search request drives one full browser
// session, so requests are expected to be infrequent and long-running.
func Start(repo *database.DBRepository, cfg *config.Config) {
	http.HandleFunc("/search", searchHandler(repo, cfg))

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("Starting API server on %s", addr)
	log.Printf("Endpoint available at POST http://localhost%s/search", addr)

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func searchHandler(repo *database.DBRepository, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, SearchResponse{
				Status: "error", Detail: "use POST",
			})
			return
		}

		keyword := r.URL.Query().Get("keyword")
		if keyword == "" {
			writeJSON(w, http.StatusBadRequest, SearchResponse{
				Status: "error", Detail: "keyword is required",
			})
			return
		}

		maxPages := 1
		if raw := r.URL.Query().Get("max_pages"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, SearchResponse{
					Status: "error", Keyword: keyword, Detail: "max_pages must be an integer",
				})
				return
			}
			maxPages = n
		}
		if err := cfg.ValidateMaxPages(maxPages); err != nil {
			writeJSON(w, http.StatusBadRequest, SearchResponse{
				Status: "error", Keyword: keyword, Detail: err.Error(),
			})
			return
		}

		session := spider.NewSession(cfg.Spider)
		records, err := session.Run(keyword, maxPages)
		if err != nil && len(records) == 0 {
			log.Printf("Search session for %q failed: %v", keyword, err)
			writeJSON(w, http.StatusInternalServerError, SearchResponse{
				Status: "error", Keyword: keyword, Detail: "scrape failed: " + err.Error(),
			})
			return
		}
		if err != nil {
			log.Printf("WARN: session for %q failed after %d records: %v", keyword, len(records), err)
		}

		newCount, newIDs := ingest.NewSink(repo).Ingest(records)

		writeJSON(w, http.StatusOK, SearchResponse{
			Status:       "success",
			Keyword:      keyword,
			TotalResults: len(records),
			NewRecords:   newCount,
			NewRecordIDs: newIDs,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body SearchResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
