package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mihaisavezi/chatrelay/internal/providers"
)

const (
	DefaultReadURLMaxChars = 5000
	truncatedSuffix        = "... (truncated)"
	readURLUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxPageBytes           = 5 << 20
)

// skippedElements never contribute text.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Aside:    true,
	atom.Iframe:   true,
	atom.Noscript: true,
}

// ReadURL fetches a page and returns its readable text. When Exa is
// configured it is tried first and a direct fetch is the fallback.
type ReadURL struct {
	exa      *ExaClient
	client   *http.Client
	maxChars int
	logger   *slog.Logger
}

func NewReadURL(exa *ExaClient, client *http.Client, maxChars int, logger *slog.Logger) *ReadURL {
	if client == nil {
		client = http.DefaultClient
	}
	if maxChars <= 0 {
		maxChars = DefaultReadURLMaxChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadURL{exa: exa, client: client, maxChars: maxChars, logger: logger}
}

func (t *ReadURL) Definition() providers.ToolDefinition {
	return providers.ToolDefinition{
		Name:        "readUrl",
		Description: "Read the content of a specific URL.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"url": {"type": "string", "description": "The URL to read"}
			},
			"required": ["url"]
		}`),
	}
}

type readURLArgs struct {
	URL string `json:"url"`
}

type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (t *ReadURL) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	var args readURLArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	target, err := url.Parse(strings.TrimSpace(args.URL))
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, fmt.Errorf("%w: url must be an absolute http(s) URL", ErrInvalidArgs)
	}

	if t.exa.Configured() {
		results, err := t.exa.GetContents(ctx, []string{target.String()})
		if err == nil && len(results) > 0 {
			page := results[0]
			return Page{URL: page.URL, Title: page.Title, Content: truncate(page.Text, t.maxChars, truncatedSuffix)}, nil
		}
		t.logger.Warn("Exa retrieve failed, falling back to fetch", "url", target.String(), "error", err)
	}

	page, err := t.fetch(ctx, target.String())
	if err != nil {
		return nil, fmt.Errorf("failed to read URL: %w", err)
	}
	return page, nil
}

func (t *ReadURL) fetch(ctx context.Context, target string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", readURLUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	title, text := extractText(doc)

	return Page{
		URL:     target,
		Title:   title,
		Content: truncate(text, t.maxChars, truncatedSuffix),
	}, nil
}

// extractText returns the document title and the collapsed text of its body.
func extractText(doc *html.Node) (string, string) {
	var title string
	var body strings.Builder

	var walk func(n *html.Node, inBody bool)
	walk = func(n *html.Node, inBody bool) {
		if n.Type == html.ElementNode {
			if skippedElements[n.DataAtom] {
				return
			}
			switch n.DataAtom {
			case atom.Title:
				if title == "" {
					title = collapseSpace(nodeText(n))
				}
				return
			case atom.Body:
				inBody = true
			}
		}

		if n.Type == html.TextNode && inBody {
			body.WriteString(n.Data)
			body.WriteByte(' ')
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inBody)
		}
	}
	walk(doc, false)

	return title, collapseSpace(body.String())
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
