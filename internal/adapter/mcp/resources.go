package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/planvault/planvault/internal/domain/document"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"planvault://documents",
			"Document List",
			mcplib.WithResourceDescription("Recent planning documents, newest first"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleDocumentsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"planvault://tags",
			"Tag List",
			mcplib.WithResourceDescription("All tags"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleTagsResource,
	)
}

func (s *Server) handleDocumentsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Store == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"store not configured"}`,
			},
		}, nil
	}
	docs, err := s.deps.Store.ListDocuments(ctx, document.Page{Limit: 50})
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleTagsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Store == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"store not configured"}`,
			},
		}, nil
	}
	tags, err := s.deps.Store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
