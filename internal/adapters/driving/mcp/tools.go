package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragdesk/internal/connectors/filesystem"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/events"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	Model      string `json:"model,omitempty" jsonschema:"generation model (default from settings)"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to query (default: the most recent completed one)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer         string              `json:"answer"`
	Sources        []domain.Provenance `json:"sources"`
	NoRelevantInfo bool                `json:"no_relevant_info,omitempty"`
	Warnings       []string            `json:"warnings,omitempty"`
	State          string              `json:"state"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Paths []string `json:"paths" jsonschema:"files or directories to ingest"`
	Model string   `json:"model,omitempty" jsonschema:"embedding model (default from settings)"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Collection  string                 `json:"collection"`
	TotalChunks int                    `json:"total_chunks"`
	PagesSeen   int                    `json:"pages_seen"`
	Skipped     int                    `json:"skipped"`
	Fallbacks   int                    `json:"fallbacks"`
	Documents   []domain.DocumentCount `json:"documents"`
	Warnings    []string               `json:"warnings,omitempty"`
	State       string                 `json:"state"`
}

// ListModelsOutput is the output schema for the list_models tool.
type ListModelsOutput struct {
	Models []string `json:"models"`
}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	Provider   string `json:"provider"`
	BaseURL    string `json:"base_url,omitempty"`
	Reachable  bool   `json:"reachable"`
	Error      string `json:"error,omitempty"`
	Collection string `json:"collection,omitempty"`
	ActiveJobs int    `json:"active_jobs"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from ingested local documents, citing source and page",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Ingest local files or directories into a vector collection",
	}, s.handleIngest)

	if s.ports.Models != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_models",
			Description: "List installed generation models",
		}, s.handleListModels)
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report model daemon reachability and the current collection",
	}, s.handleStatus)
}

// handleAsk runs a query job and waits for its answer.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if input.Collection != "" {
		if _, err := s.ports.Jobs.Attach(ctx, input.Collection); err != nil {
			return nil, AskOutput{}, err
		}
	}

	model := input.Model
	if model == "" {
		model = s.ports.GenerationModel
	}

	var output AskOutput
	state, err := s.runJob(ctx, func(ctx context.Context) (string, error) {
		return s.ports.Jobs.StartQuery(ctx, input.Question, model)
	}, func(ev domain.Event) {
		switch {
		case ev.Type == domain.EventWarning:
			output.Warnings = append(output.Warnings, ev.Message)
		case ev.Type == domain.EventAnswer && ev.Answer != nil:
			output.Answer = ev.Answer.Text
			output.Sources = ev.Answer.Sources
			output.NoRelevantInfo = ev.Answer.NoRelevantInfo
		}
	})
	if err != nil {
		return nil, AskOutput{}, err
	}
	output.State = state.String()
	return nil, output, nil
}

// handleIngest expands paths and runs an ingestion job to completion.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	docs, err := filesystem.Scan(input.Paths, s.ports.Supports)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	model := input.Model
	if model == "" {
		model = s.ports.EmbeddingModel
	}

	var output IngestOutput
	state, err := s.runJob(ctx, func(ctx context.Context) (string, error) {
		return s.ports.Jobs.StartIngestion(ctx, docs, model)
	}, func(ev domain.Event) {
		switch ev.Type {
		case domain.EventSkip, domain.EventWarning:
			output.Warnings = append(output.Warnings, ev.Message)
		case domain.EventSummary:
			if sum := ev.Summary; sum != nil {
				output.Collection = sum.Collection
				output.TotalChunks = sum.TotalChunks
				output.PagesSeen = sum.PagesSeen
				output.Skipped = sum.Skipped
				output.Fallbacks = sum.Fallbacks
				output.Documents = sum.Documents
			}
		}
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	output.State = state.String()
	return nil, output, nil
}

// handleListModels lists installed generation models.
func (s *Server) handleListModels(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListModelsOutput, error) {
	models, err := s.ports.Models.ListModels(ctx)
	if err != nil {
		return nil, ListModelsOutput{}, err
	}
	if models == nil {
		models = []string{}
	}
	return nil, ListModelsOutput{Models: models}, nil
}

// handleStatus probes the daemon and reports job state.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatusOutput, error) {
	var output StatusOutput
	if s.ports.Models != nil {
		st := s.ports.Models.Status(ctx)
		output.Provider = st.Provider
		output.BaseURL = st.BaseURL
		output.Reachable = st.Reachable
		if st.Err != nil {
			output.Error = st.Err.Error()
		}
	}
	if info, ok := s.ports.Jobs.Current(); ok {
		output.Collection = info.Name
	}
	output.ActiveJobs = len(s.ports.Jobs.Jobs())
	return nil, output, nil
}

// runJob subscribes, starts a job and passes its events to fn until the
// job reaches a terminal state. A failed job returns its error.
func (s *Server) runJob(
	ctx context.Context,
	start func(context.Context) (string, error),
	fn func(domain.Event),
) (domain.JobState, error) {
	sub := s.ports.Jobs.Subscribe()
	defer sub.Close()

	id, err := start(ctx)
	if err != nil {
		return domain.StateIdle, err
	}

	var (
		final   domain.JobState
		failure error
		done    bool
	)
	err = sub.Poll(ctx, events.DefaultPollInterval, func(evs []domain.Event) bool {
		for _, ev := range evs {
			if ev.JobID != id {
				continue
			}
			fn(ev)
			if ev.Type == domain.EventError && ev.Err != nil {
				failure = ev.Err
			}
			if ev.IsTerminal() {
				final, done = ev.State, true
				return false
			}
		}
		return true
	})
	if err != nil {
		// The client went away; stop the job it started.
		_ = s.ports.Jobs.CancelJob(id)
		return domain.StateCancelled, err
	}
	if !done {
		return domain.StateIdle, errNotTerminal
	}
	if final == domain.StateFailed {
		if failure == nil {
			failure = fmt.Errorf("job %s failed", id)
		}
		return final, failure
	}
	return final, nil
}
