// Package xai is a minimal client for the x.ai chat and image endpoints.
// The API is OpenAI-compatible, so requests are plain JSON over HTTP.
package xai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production x.ai API root.
const DefaultBaseURL = "https://api.x.ai/v1"

// Client talks to the x.ai API.
type Client struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	ImageModel string
	client     *http.Client
}

// NewClient creates a client. The single coarse timeout guards every call;
// generation can be slow, so callers pass the configured value rather than a
// per-request deadline.
func NewClient(baseURL, apiKey, chatModel, imageModel string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = time.Hour
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		ChatModel:  chatModel,
		ImageModel: imageModel,
		client:     &http.Client{Timeout: timeout},
	}
}

// IsConfigured checks if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.APIKey != ""
}

// ChatJSON sends a system+user chat exchange and returns the raw assistant
// content. The caller is responsible for parsing it; the backend is
// non-deterministic and occasionally returns malformed output.
func (c *Client) ChatJSON(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model": c.ChatModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("xai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("xai API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in xai response")
	}

	return result.Choices[0].Message.Content, nil
}

// Image requests one generated image for prompt and returns the raw bytes.
// The API is asked for base64 so the result can be post-processed in memory.
func (c *Client) Image(ctx context.Context, prompt string) ([]byte, error) {
	body := map[string]any{
		"model":           c.ImageModel,
		"prompt":          prompt,
		"n":               1,
		"response_format": "b64_json",
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/images/generations", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xai image error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("xai image returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding image response: %w", err)
	}

	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("no image in xai response")
	}

	raw, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decoding image base64: %w", err)
	}

	return raw, nil
}
