// Package mcp provides an MCP (Model Context Protocol) server that
// exposes the spirit answer pipeline as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"machinespirit/internal/core"
	"machinespirit/internal/storage"
	"machinespirit/pkg/models"
)

// Server wraps spirit services and exposes them as MCP tools.
type Server struct {
	server    *gomcp.Server
	router    *core.Router
	teacher   *core.Teacher
	queue     storage.ResearchQueue
	knowledge storage.KnowledgeStore
	drafts    storage.DraftStore
}

// NewServer creates a new MCP server with the given service dependencies.
// teacher, queue, and drafts may be nil, disabling their tools.
func NewServer(router *core.Router, teacher *core.Teacher, queue storage.ResearchQueue, knowledge storage.KnowledgeStore, drafts storage.DraftStore, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		router:    router,
		teacher:   teacher,
		queue:     queue,
		knowledge: knowledge,
		drafts:    drafts,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "spirit", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type askQuestionInput struct {
	Question string `json:"question" jsonschema:"required,the question to resolve"`
	Channel  string `json:"channel,omitempty" jsonschema:"conversation channel for turn history (defaults to mcp)"`
}

type askQuestionOutput struct {
	Answer     string `json:"answer"`
	Source     string `json:"source"`
	Confidence string `json:"confidence"`
	Queued     bool   `json:"queued_for_research"`
}

type teachAnswerInput struct {
	Topic  string `json:"topic" jsonschema:"required,the topic being taught"`
	Answer string `json:"answer" jsonschema:"required,the answer to store"`
}

type teachAnswerOutput struct {
	Topic      string  `json:"topic"`
	Confidence float64 `json:"confidence"`
}

type queueResearchInput struct {
	Topic  string `json:"topic" jsonschema:"required,the topic to research"`
	Reason string `json:"reason,omitempty" jsonschema:"free-text trigger for the research request"`
}

type queueResearchOutput struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

type getStatusInput struct{}

type getStatusOutput struct {
	KnowledgeEntries int `json:"knowledge_entries"`
	TaughtEntries    int `json:"taught_entries"`
	PendingResearch  int `json:"pending_research"`
	Drafts           int `json:"drafts"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "ask_question",
		Description: "Resolve a question through the answer pipeline. Always returns an answer, plus the source it came from and whether the topic was queued for research.",
	}, s.handleAskQuestion)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "teach_answer",
		Description: "Teach the assistant an answer for a topic. Taught answers carry high confidence and override prior answers.",
	}, s.handleTeachAnswer)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "queue_research",
		Description: "Queue a topic for offline research. Deduplicates against already-pending topics.",
	}, s.handleQueueResearch)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_status",
		Description: "Get counts of stored knowledge, pending research items, and drafts awaiting review.",
	}, s.handleGetStatus)
}

// --- Tool handlers ---

func (s *Server) handleAskQuestion(ctx context.Context, _ *gomcp.CallToolRequest, input askQuestionInput) (*gomcp.CallToolResult, askQuestionOutput, error) {
	if input.Question == "" {
		return errorResult("question is required"), askQuestionOutput{}, nil
	}
	channel := input.Channel
	if channel == "" {
		channel = "mcp"
	}

	res := s.router.Resolve(ctx, input.Question, channel)
	out := askQuestionOutput{
		Answer:     res.Answer,
		Source:     res.Source,
		Confidence: string(res.Confidence),
		Queued:     res.Queued,
	}
	return nil, out, nil
}

func (s *Server) handleTeachAnswer(_ context.Context, _ *gomcp.CallToolRequest, input teachAnswerInput) (*gomcp.CallToolResult, teachAnswerOutput, error) {
	if s.teacher == nil {
		return errorResult("teaching not available"), teachAnswerOutput{}, nil
	}
	if input.Topic == "" {
		return errorResult("topic is required"), teachAnswerOutput{}, nil
	}
	if input.Answer == "" {
		return errorResult("answer is required"), teachAnswerOutput{}, nil
	}

	entry, err := s.teacher.Teach(input.Topic, input.Answer)
	if err != nil {
		return errorResult(fmt.Sprintf("teaching %s: %s", input.Topic, err)), teachAnswerOutput{}, nil
	}

	out := teachAnswerOutput{Topic: entry.Topic, Confidence: entry.Confidence}
	return nil, out, nil
}

func (s *Server) handleQueueResearch(_ context.Context, _ *gomcp.CallToolRequest, input queueResearchInput) (*gomcp.CallToolResult, queueResearchOutput, error) {
	if s.queue == nil {
		return errorResult("research queue not available"), queueResearchOutput{}, nil
	}
	if input.Topic == "" {
		return errorResult("topic is required"), queueResearchOutput{}, nil
	}
	reason := input.Reason
	if reason == "" {
		reason = "mcp_request"
	}

	queued, err := s.queue.Enqueue(input.Topic, reason, "mcp")
	if err != nil {
		return errorResult(fmt.Sprintf("queueing %s: %s", input.Topic, err)), queueResearchOutput{}, nil
	}

	out := queueResearchOutput{Queued: queued}
	if queued {
		out.Message = fmt.Sprintf("queued %s for research", input.Topic)
	} else {
		out.Message = fmt.Sprintf("%s is already pending", input.Topic)
	}
	return nil, out, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *gomcp.CallToolRequest, _ getStatusInput) (*gomcp.CallToolResult, getStatusOutput, error) {
	var out getStatusOutput

	if s.knowledge != nil {
		entries, err := s.knowledge.All()
		if err != nil {
			return errorResult(fmt.Sprintf("reading knowledge: %s", err)), getStatusOutput{}, nil
		}
		out.KnowledgeEntries = len(entries)
		for _, e := range entries {
			if e.TaughtByUser {
				out.TaughtEntries++
			}
		}
	}
	if s.queue != nil {
		items, err := s.queue.Items()
		if err != nil {
			return errorResult(fmt.Sprintf("reading queue: %s", err)), getStatusOutput{}, nil
		}
		for _, item := range items {
			if item.Status == models.QueuePending {
				out.PendingResearch++
			}
		}
	}
	if s.drafts != nil {
		drafts, err := s.drafts.All()
		if err != nil {
			return errorResult(fmt.Sprintf("reading drafts: %s", err)), getStatusOutput{}, nil
		}
		out.Drafts = len(drafts)
	}

	return nil, out, nil
}

// --- Helpers ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
