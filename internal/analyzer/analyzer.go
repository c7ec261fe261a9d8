package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tt67wq/xianyu-spider/internal/models"
)

// Analyzer defines a generic interface for any AI analysis service.
// The service is opaque: a prompt goes in, free-form text comes out.
type Analyzer interface {
	// AnalyzeStream sends a prompt to the AI and returns the response as a
	// stream of text chunks.
	AnalyzeStream(ctx context.Context, prompt string) (<-chan string, error)

	// Analyze performs a simple, non-streaming analysis.
	Analyze(ctx context.Context, prompt string) (string, error)
}

// BuildPrompt embeds the product data and the user's free-form requirement
// into a single analysis prompt. There is no preset template on purpose: the
// model is free to interpret whatever the user asked for.
func BuildPrompt(products []models.StoredProduct, requirement string) (string, error) {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal products for analysis: %w", err)
	}
	return fmt.Sprintf(
		"商品数据：%s\n\n用户需求：%s\n\n请根据用户需求自由分析这些商品，输出格式不限。",
		data, requirement,
	), nil
}
