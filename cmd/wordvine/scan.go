package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/leafbridge/wordvine/pkg/annotate"
	"github.com/leafbridge/wordvine/pkg/config"
	"github.com/leafbridge/wordvine/pkg/dictapi"
	"github.com/leafbridge/wordvine/pkg/store"
	"github.com/leafbridge/wordvine/pkg/textmatch"
	"github.com/leafbridge/wordvine/pkg/translate"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

var scanCmd = &cobra.Command{
	Use:   "scan <url-or-file>",
	Short: "Scan a page and replace known vocabulary in place",
	Long: "Fetches (or reads) an HTML page, scans its text blocks against the " +
		"stored vocabulary and writes the annotated document. Translation and " +
		"aggressive matching follow the stored configuration.",
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var (
	scanOutFile     string
	scanArticleOnly bool
	scanLookupURL   string
	scanSaveContext bool
)

func init() {
	scanCmd.Flags().StringVarP(&scanOutFile, "out", "o", "", "Output file for the annotated HTML (default stdout)")
	scanCmd.Flags().BoolVar(&scanArticleOnly, "article-only", false, "Extract the main article before scanning")
	scanCmd.Flags().StringVar(&scanLookupURL, "lookup-url", "", "Rich lookup URL template for aggressive matching, {word} templated")
	scanCmd.Flags().BoolVar(&scanSaveContext, "save-context", false, "Store matched sentences as entry context")

	rootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	target := args[0]

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg, err := loadConfig(st)
	if err != nil {
		return err
	}
	entries, err := st.ListEntries()
	if err != nil {
		return fmt.Errorf("load vocabulary: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: vocabulary is empty, nothing will match.")
	}

	body, err := loadPage(ctx, target)
	if err != nil {
		return err
	}
	if scanArticleOnly {
		body, err = extractArticle(body, target)
		if err != nil {
			return err
		}
	}
	if cfg.Scan.Language == "ja" {
		body = annotate.StripRuby(body)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	sched := annotate.NewScheduler(
		&annotate.State{Vocabulary: entries, Config: cfg},
		buildTranslator(cfg),
		buildLookup(cfg),
	)
	sched.Logger = log.New(os.Stderr, "", log.LstdFlags)
	if cfg.Scan.Language == "ja" {
		lz, err := textmatch.NewLemmatizer()
		if err != nil {
			log.Printf("Warning: lemmatizer unavailable, aggressive gating degrades: %v", err)
		} else {
			sched.SetLemmatizer(lz)
		}
	}

	// A config import from another process takes effect next flush cycle.
	cancelWatch := st.Watch(configKey, func(raw []byte) {
		updated, err := config.Import(raw)
		if err != nil {
			return
		}
		sched.SetState(&annotate.State{Vocabulary: entries, Config: updated})
	})
	defer cancelWatch()

	admitted := sched.Rescan(doc)
	fmt.Fprintf(os.Stderr, "Scanning %d text blocks...\n", admitted)
	if err := sched.Flush(ctx); err != nil {
		return err
	}

	if scanSaveContext {
		if n, err := saveContexts(st, doc, entries); err != nil {
			log.Printf("Warning: saving contexts failed: %v", err)
		} else if n > 0 {
			fmt.Fprintf(os.Stderr, "Stored context sentences for %d entries.\n", n)
		}
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if scanOutFile == "" {
		_, err = os.Stdout.Write(out.Bytes())
		return err
	}
	if err := os.WriteFile(scanOutFile, out.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Annotated page written to %s\n", scanOutFile)
	return nil
}

const configKey = "config"

// loadConfig reads the stored configuration blob, falling back to defaults
// when none was imported yet.
func loadConfig(st *store.Store) (*config.Config, error) {
	raw, ok, err := st.Get(configKey)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !ok {
		return config.Default(), nil
	}
	return config.Import(raw)
}

func buildTranslator(cfg *config.Config) annotate.Translator {
	if !cfg.Translate.Enabled || cfg.Translate.Endpoint == "" {
		return nil
	}
	return translate.NewHTTPEngine(cfg.Translate.Endpoint, os.Getenv("WORDVINE_TRANSLATE_API_KEY"))
}

func buildLookup(cfg *config.Config) annotate.RichLookupFunc {
	if !cfg.Scan.Aggressive || scanLookupURL == "" {
		return nil
	}
	client := dictapi.NewClient()
	client.LookupURLTemplate = scanLookupURL
	return client.RichLookup
}

// saveContexts harvests the matched-sentence attributes off replacement
// units and stores the first sentence seen as context for entries that have
// none yet.
func saveContexts(st *store.Store, doc *html.Node, entries []*vocab.Entry) (int, error) {
	byID := make(map[string]*vocab.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	var updated []*vocab.Entry
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			var id, sentence string
			for _, a := range n.Attr {
				switch a.Key {
				case "data-wv-entry":
					id = a.Val
				case "data-wv-sentence":
					sentence = a.Val
				}
			}
			if id != "" && sentence != "" {
				if e, ok := byID[id]; ok && e.Context == "" {
					e.Context = sentence
					updated = append(updated, e)
					delete(byID, id)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(updated) == 0 {
		return 0, nil
	}
	return len(updated), st.SaveEntries(updated)
}

// loadPage fetches a URL or reads a local file, depending on the target.
func loadPage(ctx context.Context, target string) ([]byte, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		raw, err := os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("read page: %w", err)
		}
		return raw, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	// Mimic a real browser to avoid being blocked.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %s", target, resp.Status)
	}

	const maxBodySize = 10 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) >= maxBodySize {
		return nil, fmt.Errorf("response exceeded %d bytes", maxBodySize)
	}
	return body, nil
}

// extractArticle reduces a full page to its main article HTML.
func extractArticle(body []byte, target string) ([]byte, error) {
	var pageURL *url.URL
	if strings.HasPrefix(target, "http") {
		pageURL, _ = url.Parse(target)
	}
	if pageURL == nil {
		pageURL, _ = url.Parse("file:///local")
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}
	if article.Content == "" {
		return nil, fmt.Errorf("no article content found")
	}
	return []byte(article.Content), nil
}
