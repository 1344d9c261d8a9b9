package ollama_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/petasbytes/aicli/internal/ollama"
)

type capture struct {
	method string
	url    string
	body   []byte
}

type fakeTransport struct {
	respStatus int
	respBody   []byte
	captured   *capture
	err        error
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var b []byte
	if req.Body != nil {
		b, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}
	if f.captured != nil {
		f.captured.method = req.Method
		f.captured.url = req.URL.String()
		f.captured.body = b
	}
	if f.err != nil {
		return nil, f.err
	}
	resp := &http.Response{
		StatusCode: f.respStatus,
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func newClientWithTransport(rt http.RoundTripper) *ollama.Client {
	return ollama.New("http://fake:11434").WithHTTPClient(&http.Client{Transport: rt})
}

func TestChat_BatchRequestAndResponse(t *testing.T) {
	capReq := &capture{}
	fake := &fakeTransport{
		respStatus: 200,
		respBody:   []byte(`{"model":"m","message":{"role":"assistant","content":"hi"},"done":true}`),
		captured:   capReq,
	}
	cli := newClientWithTransport(fake)

	resp, err := cli.Chat(context.Background(), ollama.ChatRequest{
		Model:    "m",
		Messages: []ollama.Message{{Role: ollama.RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "hi" || resp.Message.Role != ollama.RoleAssistant {
		t.Fatalf("unexpected reply: %+v", resp.Message)
	}

	if capReq.method != http.MethodPost || !strings.HasSuffix(capReq.url, "/api/chat") {
		t.Fatalf("unexpected request: %s %s", capReq.method, capReq.url)
	}
	var sent ollama.ChatRequest
	if err := json.Unmarshal(capReq.body, &sent); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if sent.Stream {
		t.Fatal("batch mode must send stream=false")
	}
	if len(sent.Messages) != 1 || sent.Messages[0].Content != "hello" {
		t.Fatalf("unexpected sent messages: %+v", sent.Messages)
	}
}

func TestChatStream_AccumulatesContentAndToolCalls(t *testing.T) {
	ndjson := strings.Join([]string{
		`{"model":"m","message":{"role":"assistant","content":"Hel"}}`,
		`{"message":{"content":"lo"}}`,
		`{"message":{"tool_calls":[{"function":{"name":"read_file","arguments":{"path":"a.txt"}}}]}}`,
		`{"message":{"content":""},"done":true}`,
	}, "\n")
	capReq := &capture{}
	fake := &fakeTransport{respStatus: 200, respBody: []byte(ndjson), captured: capReq}
	cli := newClientWithTransport(fake)

	var tokens []string
	resp, err := cli.ChatStream(context.Background(), ollama.ChatRequest{Model: "m"}, func(tok string) {
		tokens = append(tokens, tok)
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if resp.Message.Content != "Hello" {
		t.Fatalf("content not accumulated: %q", resp.Message.Content)
	}
	if len(resp.Message.ToolCalls) != 1 || resp.Message.ToolCalls[0].Function.Name != "read_file" {
		t.Fatalf("tool calls not accumulated: %+v", resp.Message.ToolCalls)
	}
	if !resp.Done {
		t.Fatal("done flag not carried")
	}
	if len(tokens) != 2 || tokens[0] != "Hel" || tokens[1] != "lo" {
		t.Fatalf("unexpected token callbacks: %v", tokens)
	}

	var sent ollama.ChatRequest
	if err := json.Unmarshal(capReq.body, &sent); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if !sent.Stream {
		t.Fatal("streaming mode must send stream=true")
	}
}

func TestChatStream_SkipsMalformedLines(t *testing.T) {
	ndjson := strings.Join([]string{
		`{"message":{"role":"assistant","content":"ok"}}`,
		`not json at all`,
		`{"done":true}`,
	}, "\n")
	cli := newClientWithTransport(&fakeTransport{respStatus: 200, respBody: []byte(ndjson)})
	resp, err := cli.ChatStream(context.Background(), ollama.ChatRequest{}, nil)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if resp.Message.Content != "ok" {
		t.Fatalf("unexpected content: %q", resp.Message.Content)
	}
}

func TestChat_TransportErrorBecomesConnectionError(t *testing.T) {
	cli := newClientWithTransport(&fakeTransport{err: errors.New("connection refused")})
	_, err := cli.Chat(context.Background(), ollama.ChatRequest{Model: "m"})
	var connErr *ollama.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %T: %v", err, err)
	}
	if !strings.Contains(connErr.Error(), "ollama serve") {
		t.Fatalf("remediation hint missing: %v", connErr)
	}
}

func TestChat_APIErrorBodySurfaced(t *testing.T) {
	cli := newClientWithTransport(&fakeTransport{
		respStatus: 400,
		respBody:   []byte(`{"error":"model 'x' not found"}`),
	})
	_, err := cli.Chat(context.Background(), ollama.ChatRequest{Model: "x"})
	if err == nil || !strings.Contains(err.Error(), "model 'x' not found") {
		t.Fatalf("expected API error body in message, got %v", err)
	}
	var connErr *ollama.ConnectionError
	if errors.As(err, &connErr) {
		t.Fatal("an HTTP-level error is not a connection failure")
	}
}

func TestListModels(t *testing.T) {
	capReq := &capture{}
	cli := newClientWithTransport(&fakeTransport{
		respStatus: 200,
		respBody:   []byte(`{"models":[{"name":"qwen3-coder:30b"},{"name":"llama3.2:3b"}]}`),
		captured:   capReq,
	})
	names, err := cli.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(names) != 2 || names[0] != "qwen3-coder:30b" {
		t.Fatalf("unexpected names: %v", names)
	}
	if capReq.method != http.MethodGet || !strings.HasSuffix(capReq.url, "/api/tags") {
		t.Fatalf("unexpected request: %s %s", capReq.method, capReq.url)
	}
}

func TestHasModel(t *testing.T) {
	cli := newClientWithTransport(&fakeTransport{
		respStatus: 200,
		respBody:   []byte(`{"models":[{"name":"a"},{"name":"b"}]}`),
	})
	ok, err := cli.HasModel(context.Background(), "b")
	if err != nil || !ok {
		t.Fatalf("expected b present, got ok=%v err=%v", ok, err)
	}

	cli = newClientWithTransport(&fakeTransport{
		respStatus: 200,
		respBody:   []byte(`{"models":[{"name":"a"}]}`),
	})
	ok, err = cli.HasModel(context.Background(), "b")
	if err != nil || ok {
		t.Fatalf("expected b absent, got ok=%v err=%v", ok, err)
	}
}
