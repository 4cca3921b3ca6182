package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCleanTopic(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"What is NAT?", "nat"},
		{"what's the OSI model", "osi model"},
		{"Define a microphone.", "microphone"},
		{"tell me about docker", "docker"},
		{"NAT", "nat"},
		{"explain  an  index", "index"},
	}
	for _, c := range cases {
		if got := CleanTopic(c.in); got != c.want {
			t.Errorf("CleanTopic(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTrimSentences(t *testing.T) {
	text := "First sentence. Second sentence! Third sentence? Fourth sentence."
	got := trimSentences(text, 2, 700)
	if got != "First sentence. Second sentence!" {
		t.Errorf("unexpected trim: %q", got)
	}

	long := strings.Repeat("word ", 300) + "."
	if len(trimSentences(long, 3, 100)) > 100 {
		t.Error("char cap not applied")
	}
}

func TestWikipediaResearcher_Answer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/nat") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"extract":"Network address translation is a method of mapping an IP address space into another. It is commonly used in routers. It conserves addresses. A fourth sentence that should be trimmed."}`))
	}))
	defer server.Close()

	r := NewWikipediaResearcher(server.URL, time.Second)
	answer, err := r.Answer(context.Background(), "what is NAT?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(answer, "Network address translation") {
		t.Errorf("unexpected answer: %q", answer)
	}
	if strings.Contains(answer, "fourth sentence") {
		t.Errorf("answer not trimmed: %q", answer)
	}
}

func TestWikipediaResearcher_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	r := NewWikipediaResearcher(server.URL, time.Second)
	if _, err := r.Answer(context.Background(), "what is an unfindable thing"); err == nil {
		t.Fatal("expected error for missing page")
	}
}

func TestWikipediaResearcher_Unreachable(t *testing.T) {
	r := NewWikipediaResearcher("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := r.Answer(context.Background(), "what is nat"); err == nil {
		t.Fatal("expected error when endpoint is unreachable")
	}
}
