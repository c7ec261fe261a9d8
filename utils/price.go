package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// anomalyMarkers are phrases the source uses when a listing has no real
// numeric price ("abnormal", "none yet", "pending", "free", "negotiable").
var anomalyMarkers = []string{"异常", "暂无", "待定", "免费", "面议"}

// priceJunkRe strips everything except digits, separators and the
// ten-thousand marker 万.
var priceJunkRe = regexp.MustCompile(`[^\d.,万]`)

// ParsePriceToCents converts a display price string to cents.
//
// Supported inputs include "¥1200", "¥1,200", "1.2万" and "¥1.2万".
// The sentinel -1 is returned for empty input, anomaly markers, and
// anything that fails numeric parsing; a real negative price is never
// produced.
func ParsePriceToCents(priceStr string) int64 {
	s := strings.TrimSpace(priceStr)
	if s == "" {
		return -1
	}

	for _, marker := range anomalyMarkers {
		if strings.Contains(s, marker) {
			return -1
		}
	}

	cleaned := priceJunkRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return -1
	}

	var value float64
	if strings.Contains(cleaned, "万") {
		numStr := strings.ReplaceAll(cleaned, "万", "")
		if numStr == "" {
			return -1
		}
		n, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return -1
		}
		value = n * 10000
	} else {
		numStr := strings.ReplaceAll(cleaned, ",", "")
		n, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return -1
		}
		value = n
	}

	cents := int64(math.Round(value * 100))
	if cents < 0 {
		return -1
	}
	return cents
}

// FormatCentsToDisplay renders cents back to the display convention:
// prices of ¥10000 and above use the 万 grouping.
func FormatCentsToDisplay(cents int64) string {
	if cents < 0 {
		return "价格异常"
	}
	yuan := float64(cents) / 100
	if yuan >= 10000 {
		return fmt.Sprintf("¥%.1f万", yuan/10000)
	}
	return fmt.Sprintf("¥%.0f", yuan)
}
