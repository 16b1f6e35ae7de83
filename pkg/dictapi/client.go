// Package dictapi talks to dictionary HTTP APIs: it fetches the raw JSON
// document for a word from a user-supplied URL template, performs rich
// lookups for aggressive matching, and runs batch entry generation.
package dictapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/leafbridge/wordvine/pkg/textmatch"
)

// WordPlaceholder is the token in a source URL template replaced by the
// percent-encoded word.
const WordPlaceholder = "{word}"

const maxResponseBytes = 4 * 1024 * 1024

// Client fetches dictionary documents. Rich lookups are deduplicated with
// singleflight and cached per lemma, so scanning many sentences costs one
// round trip per word, not one per occurrence.
type Client struct {
	HTTPClient *http.Client

	// LookupURLTemplate is the rich-lookup endpoint, {word} templated.
	LookupURLTemplate string

	sf    singleflight.Group
	mu    sync.Mutex
	cache map[string]*textmatch.RichLookup
}

// NewClient returns a client with a request timeout; a hung dictionary API
// should stall one word, not the process.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		cache:      make(map[string]*textmatch.RichLookup),
	}
}

// ExpandTemplate substitutes the percent-encoded word into a URL template.
func ExpandTemplate(template, word string) (string, error) {
	if !strings.Contains(template, WordPlaceholder) {
		return "", fmt.Errorf("url template %q has no %s placeholder", template, WordPlaceholder)
	}
	return strings.ReplaceAll(template, WordPlaceholder, url.QueryEscape(word)), nil
}

// FetchDocument GETs the templated URL and decodes the JSON body. Any
// network or parse failure is a fetch error for this word.
func (c *Client) FetchDocument(ctx context.Context, template, word string) (any, error) {
	u, err := ExpandTemplate(template, word)
	if err != nil {
		return nil, err
	}
	raw, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}
	return doc, nil
}

// RichLookup fetches the structured payload for one word, deduplicating
// concurrent and repeated calls.
func (c *Client) RichLookup(ctx context.Context, word string) (*textmatch.RichLookup, error) {
	if c.LookupURLTemplate == "" {
		return nil, fmt.Errorf("no rich lookup endpoint configured")
	}
	key := strings.ToLower(strings.TrimSpace(word))

	c.mu.Lock()
	if cached, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do(key, func() (any, error) {
		u, err := ExpandTemplate(c.LookupURLTemplate, word)
		if err != nil {
			return nil, err
		}
		raw, err := c.get(ctx, u)
		if err != nil {
			return nil, err
		}
		lk, err := parseRichLookup(word, raw)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = lk
		c.mu.Unlock()
		return lk, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*textmatch.RichLookup), nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %s", u, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// parseRichLookup reduces an arbitrary lookup payload to the surface forms
// aggressive matching needs. Recognized array keys are gathered at the top
// level; a payload with none of them yields a lookup with no forms, which
// simply matches nothing.
func parseRichLookup(word string, raw []byte) (*textmatch.RichLookup, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode rich lookup: %w", err)
	}
	lk := &textmatch.RichLookup{Word: word}
	for _, key := range []string{"forms", "inflections", "exchange", "variants"} {
		arr, ok := doc[key].([]any)
		if !ok {
			continue
		}
		for _, el := range arr {
			if s, ok := el.(string); ok && strings.TrimSpace(s) != "" {
				lk.Forms = append(lk.Forms, strings.TrimSpace(s))
			}
		}
	}
	return lk, nil
}
