package utils

import (
	"log"

	"github.com/shirou/gopsutil/v3/cpu"
)

// LogicalCPUCount reports the logical core count for environment diagnostics.
// Scraping is I/O bound, so logical cores are the relevant figure when judging
// how many browser instances a host can carry.
func LogicalCPUCount() int {
	count, err := cpu.Counts(true)
	if err != nil {
		log.Printf("WARN: could not detect CPU cores: %v", err)
		return 1
	}
	return count
}
