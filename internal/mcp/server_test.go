package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"machinespirit/internal/core"
	"machinespirit/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	lockTimeout := 2 * time.Second

	knowledge := storage.NewKnowledgeStore(dir, lockTimeout)
	queue := storage.NewResearchQueue(dir, lockTimeout)
	drafts := storage.NewDraftStore(dir, lockTimeout)
	turns := storage.NewTurnMemory(dir, lockTimeout, 10)
	builtins := core.NewBuiltins("Machine Spirit", knowledge)

	router := core.NewRouter(knowledge, queue, turns, builtins, nil, nil)
	teacher := core.NewTeacher(knowledge, nil)

	return NewServer(router, teacher, queue, knowledge, drafts, "test")
}

func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// extractText extracts the text from the first TextContent in a result.
func extractText(t *testing.T, result *gomcp.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}

func decodeOutput(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	text := extractText(t, result)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("decoding tool output %q: %v", text, err)
	}
}

func TestAskQuestionMath(t *testing.T) {
	srv := newTestServer(t)

	result := callTool(t, srv, "ask_question", map[string]any{"question": "what is 12 plus 7"})
	if result.IsError {
		t.Fatalf("tool error: %s", extractText(t, result))
	}

	var out askQuestionOutput
	decodeOutput(t, result, &out)
	if out.Answer != "19" {
		t.Errorf("answer = %q, want 19", out.Answer)
	}
	if out.Source != core.SourceMath {
		t.Errorf("source = %q, want math", out.Source)
	}
}

func TestAskQuestionMissing(t *testing.T) {
	srv := newTestServer(t)
	result := callTool(t, srv, "ask_question", map[string]any{"question": ""})
	if !result.IsError {
		t.Fatal("expected error for empty question")
	}
}

func TestTeachThenAsk(t *testing.T) {
	srv := newTestServer(t)

	result := callTool(t, srv, "teach_answer", map[string]any{
		"topic":  "what is my pc",
		"answer": "It is a Ryzen 7 desktop.",
	})
	if result.IsError {
		t.Fatalf("teach error: %s", extractText(t, result))
	}
	var taught teachAnswerOutput
	decodeOutput(t, result, &taught)
	if taught.Confidence < 0.95 {
		t.Errorf("confidence = %v, want >= 0.95", taught.Confidence)
	}

	result = callTool(t, srv, "ask_question", map[string]any{"question": "What is my PC?"})
	var out askQuestionOutput
	decodeOutput(t, result, &out)
	if out.Answer != "It is a Ryzen 7 desktop." {
		t.Errorf("answer = %q", out.Answer)
	}
	if out.Source != core.SourceCache {
		t.Errorf("source = %q, want cache", out.Source)
	}
}

func TestQueueResearchDedup(t *testing.T) {
	srv := newTestServer(t)

	result := callTool(t, srv, "queue_research", map[string]any{"topic": "nat"})
	var out queueResearchOutput
	decodeOutput(t, result, &out)
	if !out.Queued {
		t.Fatalf("first enqueue not queued: %+v", out)
	}

	result = callTool(t, srv, "queue_research", map[string]any{"topic": "NAT"})
	decodeOutput(t, result, &out)
	if out.Queued {
		t.Errorf("duplicate enqueue was queued: %+v", out)
	}
}

func TestGetStatus(t *testing.T) {
	srv := newTestServer(t)

	callTool(t, srv, "teach_answer", map[string]any{"topic": "nat", "answer": "It rewrites addresses."})
	callTool(t, srv, "queue_research", map[string]any{"topic": "dhcp"})

	result := callTool(t, srv, "get_status", map[string]any{})
	var out getStatusOutput
	decodeOutput(t, result, &out)
	if out.KnowledgeEntries != 1 || out.TaughtEntries != 1 {
		t.Errorf("knowledge counts = %+v", out)
	}
	if out.PendingResearch != 1 {
		t.Errorf("pending = %d, want 1", out.PendingResearch)
	}
}
