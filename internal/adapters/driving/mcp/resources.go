package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for ragdesk resources.
	uriScheme = "ragdesk://"
)

// collectionInfo is the JSON form of a stored collection.
type collectionInfo struct {
	Name           string   `json:"name"`
	EmbeddingModel string   `json:"embedding_model"`
	Dimensions     int      `json:"dimensions"`
	Chunks         int      `json:"chunks"`
	Documents      []string `json:"documents"`
	Completed      bool     `json:"completed"`
	Current        bool     `json:"current,omitempty"`
	CreatedAt      string   `json:"created_at"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "collections",
		Name:        "collections",
		Description: "Stored vector collections",
		MIMEType:    "application/json",
	}, s.handleCollectionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "collections/{name}",
		Name:        "collection",
		Description: "One stored collection",
		MIMEType:    "application/json",
	}, s.handleCollectionResource)
}

// handleCollectionsResource returns every stored collection.
func (s *Server) handleCollectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos, err := s.collections(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, infos)
}

// handleCollectionResource returns one collection by name.
func (s *Server) handleCollectionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractCollectionName(req.Params.URI)
	if name == "" || s.ports.Index == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	infos, err := s.collections(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name == name {
			return jsonResource(req.Params.URI, info)
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func (s *Server) collections(ctx context.Context) ([]collectionInfo, error) {
	if s.ports.Index == nil {
		return []collectionInfo{}, nil
	}
	list, err := s.ports.Index.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	current := ""
	if info, ok := s.ports.Jobs.Current(); ok {
		current = info.Name
	}

	infos := make([]collectionInfo, len(list))
	for i := range list {
		c := &list[i]
		infos[i] = collectionInfo{
			Name:           c.Name,
			EmbeddingModel: c.EmbeddingModel,
			Dimensions:     c.Dimensions,
			Chunks:         c.Chunks,
			Documents:      c.Documents,
			Completed:      c.IsCompleted(),
			Current:        c.Name == current,
			CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		}
	}
	return infos, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCollectionName extracts the name from a URI like ragdesk://collections/{name}.
func extractCollectionName(uri string) string {
	const prefix = uriScheme + "collections/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
