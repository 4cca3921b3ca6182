package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://en.wikipedia.org/api/rest_v1/page/summary/"
	userAgent       = "machinespirit/1.0 (+local-assistant)"

	maxSummarySentences = 3
	maxSummaryChars     = 700
)

// WikipediaResearcher answers questions from the Wikipedia REST summary
// endpoint. No API key is required; an unreachable endpoint is an
// ordinary, recoverable failure.
type WikipediaResearcher struct {
	endpoint string
	client   *http.Client
}

// NewWikipediaResearcher creates a researcher against the given endpoint
// (empty for the public one) with a bounded per-request timeout.
func NewWikipediaResearcher(endpoint string, timeout time.Duration) *WikipediaResearcher {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &WikipediaResearcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type summaryResponse struct {
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Answer extracts a topic from the question, fetches its summary, and
// trims it to a few sentences. A second attempt strips non-alphanumeric
// characters from the topic before giving up.
func (r *WikipediaResearcher) Answer(ctx context.Context, question string) (string, error) {
	topic := CleanTopic(question)
	if topic == "" {
		return "", fmt.Errorf("research: empty topic")
	}

	summary, err := r.fetchSummary(ctx, topic)
	if err != nil || summary == "" {
		simpler := simplifyTopic(topic)
		if simpler != "" && simpler != topic {
			summary, err = r.fetchSummary(ctx, simpler)
		}
	}
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", fmt.Errorf("research: no summary for %q", topic)
	}
	return trimSentences(summary, maxSummarySentences, maxSummaryChars), nil
}

func (r *WikipediaResearcher) fetchSummary(ctx context.Context, topic string) (string, error) {
	slug := url.PathEscape(strings.ReplaceAll(topic, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+slug, nil)
	if err != nil {
		return "", fmt.Errorf("research: building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("research: fetching summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("research: summary endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 200_000))
	if err != nil {
		return "", fmt.Errorf("research: reading summary: %w", err)
	}
	var parsed summaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("research: decoding summary: %w", err)
	}
	return strings.TrimSpace(parsed.Extract), nil
}

var (
	interrogativeRe = regexp.MustCompile(`^(what\s+is|what's|whats|who\s+is|define|explain|tell\s+me\s+about)\s+`)
	articleRe       = regexp.MustCompile(`^(a|an|the)\s+`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9\s]`)
)

// CleanTopic reduces a question to a lookup topic: lowercased, leading
// interrogative phrase and article stripped, edge punctuation removed.
func CleanTopic(question string) string {
	t := strings.ToLower(strings.TrimSpace(question))
	t = interrogativeRe.ReplaceAllString(t, "")
	t = strings.Trim(t, " ?!.,")
	t = articleRe.ReplaceAllString(t, "")
	t = strings.Join(strings.Fields(t), " ")
	return t
}

func simplifyTopic(topic string) string {
	t := nonAlnumRe.ReplaceAllString(topic, " ")
	return strings.Join(strings.Fields(t), " ")
}

var sentenceEndRe = regexp.MustCompile(`(?:[.!?])\s+`)

// trimSentences keeps at most maxSentences sentences and maxChars
// characters, cutting on sentence boundaries.
func trimSentences(text string, maxSentences, maxChars int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var out []string
	total := 0
	rest := text
	for len(out) < maxSentences && rest != "" {
		loc := sentenceEndRe.FindStringIndex(rest)
		var sentence string
		if loc == nil {
			sentence, rest = rest, ""
		} else {
			sentence, rest = strings.TrimSpace(rest[:loc[1]]), rest[loc[1]:]
		}
		if total+len(sentence) > maxChars {
			break
		}
		out = append(out, sentence)
		total += len(sentence) + 1
	}
	if len(out) == 0 {
		if len(text) > maxChars {
			return text[:maxChars]
		}
		return text
	}
	return strings.Join(out, " ")
}
