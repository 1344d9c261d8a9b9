// Package ollama is a minimal client for a locally running Ollama daemon.
// It covers exactly the surface the agent consumes: /api/chat (batch and
// NDJSON streaming, with tool-call payloads) and /api/tags. Model lifecycle
// (pull, serve) is wholly external.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL matches the daemon's standard local listen address.
const DefaultBaseURL = "http://localhost:11434"

// ConnectionError means the daemon could not be reached at all. It is fatal
// to the current turn and carries a remediation hint for the user.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot reach Ollama at %s: %v (is `ollama serve` running?)", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Client talks to one daemon instance.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New returns a Client for baseURL (DefaultBaseURL when empty). No request
// timeout is set on the underlying http.Client: generation time is unbounded
// and cancellation flows through the context.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
	}
}

// WithHTTPClient overrides the transport; used by tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpc = h
	return c
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectionError{URL: c.baseURL, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return nil, fmt.Errorf("ollama %s: %s", path, apiErr.Error)
	}
	return resp, nil
}

// Chat sends the full history and returns the complete reply in one body.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false
	resp, err := c.post(ctx, "/api/chat", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	return &out, nil
}

// ChatStream sends the full history and consumes NDJSON chunks until the
// daemon signals done. onToken (may be nil) observes content deltas as they
// arrive; tool calls can appear in any chunk and are accumulated. The return
// value is the fully assembled reply, so callers classify exactly what batch
// mode would have produced.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, onToken func(string)) (*ChatResponse, error) {
	req.Stream = true
	resp, err := c.post(ctx, "/api/chat", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	assembled := ChatResponse{}
	var content strings.Builder

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue // malformed keep-alive lines are skipped
		}
		if chunk.Model != "" {
			assembled.Model = chunk.Model
		}
		if chunk.Message.Role != "" {
			assembled.Message.Role = chunk.Message.Role
		}
		if chunk.Message.Content != "" {
			content.WriteString(chunk.Message.Content)
			if onToken != nil {
				onToken(chunk.Message.Content)
			}
		}
		if len(chunk.Message.ToolCalls) > 0 {
			assembled.Message.ToolCalls = append(assembled.Message.ToolCalls, chunk.Message.ToolCalls...)
		}
		if chunk.Done {
			assembled.Done = true
			break
		}
	}
	if err := sc.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading chat stream: %w", err)
	}
	assembled.Message.Content = content.String()
	if assembled.Message.Role == "" {
		assembled.Message.Role = RoleAssistant
	}
	return &assembled, nil
}

// ListModels returns the names of models known to the daemon (/api/tags).
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &ConnectionError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama /api/tags: %s", resp.Status)
	}

	var body struct {
		Models []struct {
			Name       string    `json:"name"`
			ModifiedAt time.Time `json:"modified_at"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding tags response: %w", err)
	}
	names := make([]string, 0, len(body.Models))
	for _, m := range body.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether name is present in the daemon's model list.
func (c *Client) HasModel(ctx context.Context, name string) (bool, error) {
	names, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}
