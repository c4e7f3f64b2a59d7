// Package gemini is a minimal client for the Gemini generateContent REST
// API. The gateway treats it as an opaque text-completion service: prompt
// in, text out, or error.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GenerateRequest is the generateContent request body.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is one conversational turn.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is a single text fragment.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig carries the sampling parameters.
type GenerationConfig struct {
	Temperature     float64  `json:"temperature"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	TopP            float64  `json:"topP,omitempty"`
	TopK            int      `json:"topK,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

// GenerateResponse is the generateContent response body.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
	Error      *APIError   `json:"error,omitempty"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// APIError is the error object Gemini returns inside a 200 body on some
// failure modes.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Text extracts the first candidate's text, or "" when the response holds
// no usable candidate.
func (r *GenerateResponse) Text() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}

// NewTextRequest builds a single-turn text request.
func NewTextRequest(prompt string, cfg *GenerationConfig) *GenerateRequest {
	return &GenerateRequest{
		Contents:         []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: cfg,
	}
}

// Client is a reusable Gemini API client.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
}

// NewClient creates a client for the given endpoint, key and model.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
	}
}

// GenerateContent sends a generateContent request and decodes the response.
func (c *Client) GenerateContent(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	var reqBody bytes.Buffer
	encoder := json.NewEncoder(&reqBody)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.BaseURL, c.Model, c.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("api error %d (%s): %s", out.Error.Code, out.Error.Status, out.Error.Message)
	}

	return &out, nil
}
