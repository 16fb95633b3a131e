package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/anycompanyretail/shopbot/api/search"
)

var (
	searchToolName    = "product_search"
	searchDescription = "Search the retail product catalog using semantic search. Returns the most relevant product documents for the query text, including names, descriptions and attributes."
)

// SearchInput represents the input arguments for the product search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text to find relevant products"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
}

// handleSearch processes a product search request.
func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, apisearch.Output, error) {
	logger := s.config.Logger

	logger.Debug("MCP product search request", "query", input.Query, "top_k", input.TopK)

	output, err := apisearch.Search(
		ctx,
		input.Query,
		input.TopK,
		s.config.Embedder,
		s.config.VectorDriver,
		logger,
	)
	if err != nil {
		logger.Error("product search failed", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Product search failed: %v", err)},
			},
		}, apisearch.Output{}, nil
	}

	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, apisearch.Output{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *output, nil
}
