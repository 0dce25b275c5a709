// Package llm provides an OpenAI-compatible streaming chat client.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/krsna-app/krsna/shared/backoff"
)

var tracer = otel.GetTracerProvider().Tracer("shared/llm")

// Message is a chat message in the OpenAI wire format.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a completed tool invocation request from the model.
// Arguments is the raw JSON string; it is only parsed once the stream
// has finished delivering it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Tool is a function definition advertised to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCallDelta is one streamed fragment of a tool call. Name and
// Arguments may each carry only part of the final value.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// StreamEvent is one decoded event from the response stream.
type StreamEvent struct {
	Content       string
	ToolCallDelta *ToolCallDelta
	FinishReason  string
	Err           error
	Done          bool
}

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	retry       backoff.Strategy
}

type Option func(*Client)

func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a client for an OpenAI-compatible chat completions
// endpoint. BaseURL is the API root (e.g. "https://openrouter.ai/api").
func NewClient(baseURL, apiKey, model string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1"),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   4096,
		temperature: 0.7,
		// No client-level timeout: the stream deadline comes from the
		// request context.
		httpClient:  &http.Client{},
		retry:       backoff.Quick,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type wireToolCall struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

func encodeMessages(messages []Message) []wireMessage {
	out := make([]wireMessage, len(messages))
	for i, m := range messages {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			var wtc wireToolCall
			wtc.ID = tc.ID
			wtc.Type = "function"
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = tc.Arguments
			wm.ToolCalls = append(wm.ToolCalls, wtc)
		}
		out[i] = wm
	}
	return out
}

func encodeTools(tools []Tool) []wireTool {
	out := make([]wireTool, len(tools))
	for i, t := range tools {
		var wt wireTool
		wt.Type = "function"
		wt.Function.Name = t.Name
		wt.Function.Description = t.Description
		wt.Function.Parameters = t.Parameters
		out[i] = wt
	}
	return out
}

// ChatStream sends a streaming chat completion request and returns a
// channel of decoded stream events. The initial connection is retried
// with backoff; the stream itself is never retried. A transport failure
// mid-stream is delivered as an event with Err set.
func (c *Client) ChatStream(ctx context.Context, messages []Message, tools []Tool) (<-chan StreamEvent, error) {
	ctx, span := tracer.Start(ctx, "llm.chat_stream", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.request.max_tokens", c.maxTokens),
		attribute.Int("llm.request.messages", len(messages)),
		attribute.Int("llm.request.tools", len(tools)),
	)

	req := chatRequest{
		Model:       c.model,
		Messages:    encodeMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      true,
	}
	if len(tools) > 0 {
		req.Tools = encodeTools(tools)
		req.ToolChoice = "auto"
	}

	body, err := json.Marshal(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var resp *http.Response
	err = backoff.Retry(ctx, c.retry, func(ctx context.Context, attempt int) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err = c.httpClient.Do(httpReq) //nolint:bodyclose // closed by the reader goroutine
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			b, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return fmt.Errorf("api error: %s", resp.Status)
			}
			return fmt.Errorf("api error: %s - %s", resp.Status, string(b))
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}

	events := make(chan StreamEvent, 16)
	go func() {
		// The span covers the whole stream, not just the connection.
		defer span.End()
		defer close(events)
		defer resp.Body.Close()
		readStream(ctx, resp.Body, events)
	}()
	return events, nil
}

// chunkDelta mirrors one choices[0].delta object of a streamed chunk.
type chunkDelta struct {
	Content   string `json:"content"`
	ToolCalls []struct {
		Index    int    `json:"index"`
		ID       string `json:"id"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

// readStream decodes server-sent events from r into events. Events with
// unparseable payloads are dropped; the stream carries on. A transport
// read error surfaces as an Err event, which the caller treats as a hard
// failure for the turn.
func readStream(ctx context.Context, r io.Reader, events chan<- StreamEvent) {
	reader := bufio.NewReader(r)
	for {
		select {
		case <-ctx.Done():
			events <- StreamEvent{Err: ctx.Err()}
			return
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				events <- StreamEvent{Err: err}
				return
			}
			events <- StreamEvent{Done: true}
			return
		}

		lineStr := strings.TrimSpace(string(line))
		if !strings.HasPrefix(lineStr, "data: ") {
			continue
		}
		data := strings.TrimPrefix(lineStr, "data: ")
		if data == "[DONE]" {
			events <- StreamEvent{Done: true}
			return
		}

		var chunk struct {
			Choices []struct {
				Delta        chunkDelta `json:"delta"`
				FinishReason string     `json:"finish_reason"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		for _, tc := range choice.Delta.ToolCalls {
			events <- StreamEvent{ToolCallDelta: &ToolCallDelta{
				Index:     tc.Index,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}}
		}
		if choice.Delta.Content != "" || choice.FinishReason != "" {
			events <- StreamEvent{Content: choice.Delta.Content, FinishReason: choice.FinishReason}
		}
	}
}
