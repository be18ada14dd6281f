package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mihaisavezi/chatrelay/internal/providers"
)

const (
	defaultSearchResults = 3
	searchSnippetChars   = 500
)

// Search looks the query up on the web through Exa.
type Search struct {
	exa *ExaClient
}

func NewSearch(exa *ExaClient) *Search {
	return &Search{exa: exa}
}

func (s *Search) Definition() providers.ToolDefinition {
	return providers.ToolDefinition{
		Name:        "search",
		Description: "Search the web for information using Exa.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The search query"},
				"numResults": {"type": "number", "description": "Number of results to return", "default": 3}
			},
			"required": ["query"]
		}`),
	}
}

type searchArgs struct {
	Query      string `json:"query"`
	NumResults int    `json:"numResults"`
}

type SearchResult struct {
	Results []ExaResult `json:"results"`
}

func (s *Search) Execute(ctx context.Context, raw json.RawMessage) (any, error) {
	if !s.exa.Configured() {
		return nil, ErrNotConfigured
	}

	var args searchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidArgs)
	}
	if args.NumResults <= 0 {
		args.NumResults = defaultSearchResults
	}

	results, err := s.exa.SearchAndContents(ctx, args.Query, args.NumResults)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := SearchResult{Results: make([]ExaResult, 0, len(results))}
	for _, r := range results {
		r.Text = truncate(r.Text, searchSnippetChars, "") + "..."
		out.Results = append(out.Results, r)
	}
	return out, nil
}
