// Package translate implements the translation collaborator of the scan
// pipeline: sentences are joined with a distinctive delimiter, sent to an
// HTTP engine in one call per block, and the response is split back into
// the same sentence count.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Delimiter separates batched sentences in both directions. Chosen to be
// unlikely in prose and robust to engines that normalize whitespace.
const Delimiter = " ||| "

// JoinBatch concatenates sentences for one engine round trip.
func JoinBatch(sentences []string) string {
	return strings.Join(sentences, Delimiter)
}

// SplitBatch splits a translated batch back into n sentences. Engines
// occasionally eat or duplicate a delimiter; missing tails are padded with
// empty strings and surplus segments are dropped, degrading quality rather
// than failing the block.
func SplitBatch(joined string, n int) []string {
	parts := strings.Split(joined, strings.TrimSpace(Delimiter))
	out := make([]string, n)
	for i := 0; i < n && i < len(parts); i++ {
		out[i] = strings.TrimSpace(parts[i])
	}
	return out
}

// HTTPEngine posts JSON to a configurable endpoint:
//
//	{"text": "...", "target_lang": "zh-CN"}
//
// and expects {"text": "..."} back. APIKey, when set, is sent as a bearer
// token.
type HTTPEngine struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPEngine creates an engine with a sane request timeout.
func NewHTTPEngine(endpoint, apiKey string) *HTTPEngine {
	return &HTTPEngine{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type httpRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

type httpResponse struct {
	Text string `json:"text"`
}

// Translate performs one engine round trip.
func (e *HTTPEngine) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if e.Endpoint == "" {
		return "", fmt.Errorf("translate: no endpoint configured")
	}
	body, err := json.Marshal(httpRequest{Text: text, TargetLang: targetLang})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("translate engine returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var out httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("translate response: %w", err)
	}
	return out.Text, nil
}
