// ABOUTME: Webhook proxy that forwards user queries to external agents
// ABOUTME: Normalizes heterogeneous JSON response shapes into a canonical answer

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ywstorage/deskhub/internal/store"
)

// ApologyMessage is shown in place of an answer when the webhook call fails.
// The proxy degrades to this text instead of surfacing an error, so the
// conversation flow is never interrupted.
const ApologyMessage = "죄송합니다. 응답을 가져오는 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."

// Answer is the canonical result extracted from an upstream agent response
type Answer struct {
	Content string
	Sources []store.Source
}

// Client issues webhook queries to external agents
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a webhook client. A zero timeout means no client-side
// timeout; upstream agents can be slow.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "agent-proxy"),
	}
}

// Query sends userInput to the agent's webhook and returns the normalized
// answer. Transport failures and non-2xx statuses are converted into an
// apology answer; the returned error is always nil for those cases so callers
// never have to distinguish upstream failures from answers.
func (c *Client) Query(ctx context.Context, a *Agent, userInput string) *Answer {
	reqURL := fmt.Sprintf("%s?user_input=%s", a.WebhookURL, url.QueryEscape(userInput))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("building webhook request", "agent", a.ID, "error", err)
		return &Answer{Content: ApologyMessage, Sources: []store.Source{}}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("webhook request failed", "agent", a.ID, "error", err)
		return &Answer{Content: ApologyMessage, Sources: []store.Source{}}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("webhook returned non-success status", "agent", a.ID, "status", resp.StatusCode)
		return &Answer{Content: ApologyMessage, Sources: []store.Source{}}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("reading webhook response", "agent", a.ID, "error", err)
		return &Answer{Content: ApologyMessage, Sources: []store.Source{}}
	}

	answer := Normalize(body)
	c.logger.Debug("webhook answered", "agent", a.ID, "content_len", len(answer.Content), "sources", len(answer.Sources))
	return answer
}

// rawResponse captures every answer field an upstream agent might use.
// Different workflow engines name the answer differently; the precedence
// order below decides which one wins.
type rawResponse struct {
	FinalAnswer string         `json:"final_answer"`
	Output      string         `json:"output"`
	Answer      string         `json:"answer"`
	Message     string         `json:"message"`
	Text        string         `json:"text"`
	Sources     []store.Source `json:"sources"`
}

// Normalize extracts the canonical answer from a raw upstream response body.
// Field precedence: final_answer, output, answer, message, then a bare JSON
// string body, then text. If nothing matches, the whole body is pretty-printed
// so the user always sees something rather than an empty reply.
func Normalize(body []byte) *Answer {
	answer := &Answer{Sources: []store.Source{}}

	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err == nil {
		if raw.Sources != nil {
			answer.Sources = raw.Sources
		}
		switch {
		case raw.FinalAnswer != "":
			answer.Content = raw.FinalAnswer
			return answer
		case raw.Output != "":
			answer.Content = raw.Output
			return answer
		case raw.Answer != "":
			answer.Content = raw.Answer
			return answer
		case raw.Message != "":
			answer.Content = raw.Message
			return answer
		}
	}

	// A bare JSON string body is the answer itself
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		answer.Content = s
		return answer
	}

	if raw.Text != "" {
		answer.Content = raw.Text
		return answer
	}

	// Fallback of last resort: dump whatever came back
	var pretty any
	if err := json.Unmarshal(body, &pretty); err == nil {
		if dump, err := json.MarshalIndent(pretty, "", "  "); err == nil {
			answer.Content = string(dump)
			return answer
		}
	}
	answer.Content = string(body)
	return answer
}
