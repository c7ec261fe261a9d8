package analyzer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatibleClient is a client for any OpenAI-compatible chat API,
// including local Ollama endpoints.
type OpenAICompatibleClient struct {
	ApiURL     string
	ApiKey     string
	Model      string
	HttpClient *http.Client
}

// NewOpenAICompatibleClient creates a new client instance.
func NewOpenAICompatibleClient(apiURL, apiKey, model string) *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		ApiURL: apiURL,
		ApiKey: apiKey,
		Model:  model,
		HttpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type (
	apiRequest struct {
		Model    string    `json:"model"`
		Messages []message `json:"messages"`
		Stream   bool      `json:"stream"`
	}
	message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	streamChunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
)

// AnalyzeStream sends a prompt and processes the streaming response.
func (c *OpenAICompatibleClient) AnalyzeStream(ctx context.Context, prompt string) (<-chan string, error) {
	reqBody, err := json.Marshal(apiRequest{
		Model: c.Model,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.ApiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.ApiKey)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	outChan := make(chan string)

	go func() {
		defer close(outChan)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			content, done, ok := decodeStreamLine(scanner.Text())
			if !ok {
				continue
			}
			if done {
				return
			}
			outChan <- content
		}
		if err := scanner.Err(); err != nil {
			log.Printf("Analysis stream ended with read error: %v", err)
		}
	}()

	return outChan, nil
}

// maxStreamLine bounds a single SSE line. A model can emit delta payloads
// bigger than bufio's default token size, which would otherwise cut the
// stream short without any signal.
const maxStreamLine = 1 << 20

// decodeStreamLine parses one SSE line. ok is false for keep-alives, blank
// lines and malformed chunks; done reports the [DONE] terminator.
func decodeStreamLine(line string) (content string, done, ok bool) {
	payload, found := strings.CutPrefix(line, "data: ")
	if !found {
		return "", false, false
	}
	if payload == "[DONE]" {
		return "", true, true
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil || len(chunk.Choices) == 0 {
		return "", false, false
	}
	return chunk.Choices[0].Delta.Content, false, true
}

// Analyze provides a simple, non-streaming analysis.
func (c *OpenAICompatibleClient) Analyze(ctx context.Context, prompt string) (string, error) {
	stream, err := c.AnalyzeStream(ctx, prompt)
	if err != nil {
		return "", err
	}

	var result strings.Builder
	for chunk := range stream {
		result.WriteString(chunk)
	}
	return result.String(), nil
}
