// Package ingest deduplicates scraped records and persists the unseen ones.
package ingest

import (
	"log"

	"github.com/tt67wq/xianyu-spider/internal/models"
	"github.com/tt67wq/xianyu-spider/utils"
)

// Store is the persistence surface the sink needs.
type Store interface {
	GetOrCreateProduct(linkHash string, rec models.ProductRecord) (id int64, created bool, err error)
}

// Sink writes records through a Store with first-write-wins semantics.
type Sink struct {
	store Store
}

func NewSink(store Store) *Sink {
	return &Sink{store: store}
}

// Ingest persists records in input order, keyed by the MD5 of the canonical
// link. Records whose key already exists are skipped without touching the
// stored row. A failure on one record is logged and does not abort the rest.
// It returns the number of newly created rows and their assigned ids.
func (s *Sink) Ingest(records []models.ProductRecord) (int, []int64) {
	newCount := 0
	newIDs := []int64{}

	for i, rec := range records {
		linkHash := utils.LinkHash(rec.Link)
		id, created, err := s.store.GetOrCreateProduct(linkHash, rec)
		if err != nil {
			log.Printf("Failed to save record %d/%d (%s): %v", i+1, len(records), rec.Link, err)
			continue
		}
		if created {
			newCount++
			newIDs = append(newIDs, id)
		}
	}

	return newCount, newIDs
}
