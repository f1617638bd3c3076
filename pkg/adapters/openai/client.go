package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/partialjson"
	"github.com/aretw0/genui/pkg/ports"
)

const (
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.0-flash"

	DefaultTemperature = 0.3
)

// ErrEmptyResponse is returned when a refine or fix call yields no JSON.
var ErrEmptyResponse = errors.New("model returned no usable JSON")

// StreamError is a generation stream that failed, possibly after part of
// the document arrived.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("model stream failed after %d bytes: %v", len(e.Partial), e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Config selects the endpoint and model.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
}

// Client implements ports.Model against any OpenAI-compatible chat
// completions endpoint.
type Client struct {
	client      oai.Client
	model       string
	temperature float64
	prompts     *PromptBuilder
	logger      *slog.Logger
	reqOpts     []option.RequestOption
}

// Option configures a Client.
type Option func(*Client)

// WithPromptBuilder sets the prompt builder. The default describes no tools
// and uses the builtin examples.
func WithPromptBuilder(p *PromptBuilder) Option {
	return func(c *Client) { c.prompts = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.reqOpts = append(c.reqOpts, option.WithHTTPClient(h)) }
}

// New creates a Client. Empty config fields take the defaults.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	c := &Client{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.prompts == nil {
		c.prompts = NewPromptBuilder(nil, nil)
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithBaseURL(strings.TrimSpace(cfg.BaseURL)),
	}
	c.client = oai.NewClient(append(reqOpts, c.reqOpts...)...)
	return c
}

// Stream opens a streaming chat completion. Transport errors surface from
// the stream's Err as *StreamError.
func (c *Client) Stream(ctx context.Context, req ports.GenerateRequest) (ports.ChunkStream, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(c.prompts.System()),
			oai.UserMessage(c.prompts.User(req)),
		},
		Temperature: oai.Float(c.temperature),
	}
	c.logger.Debug("opening generation stream", "model", c.model, "prompt_bytes", len(req.Prompt))
	return &chunkStream{stream: c.client.Chat.Completions.NewStreaming(ctx, params)}, nil
}

// Refine implements ports.Model.
func (c *Client) Refine(ctx context.Context, instruction string, subtree any) (any, error) {
	return c.complete(ctx, RefinePrompt(instruction, subtree))
}

// Fix implements ports.Model.
func (c *Client) Fix(ctx context.Context, errMsg string, subtree any) (any, error) {
	return c.complete(ctx, FixPrompt(errMsg, subtree))
}

// complete runs a non-streamed JSON completion and parses its content.
func (c *Client) complete(ctx context.Context, prompt string) (any, error) {
	format := shared.NewResponseFormatJSONObjectParam()
	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(c.prompts.System()),
			oai.UserMessage(prompt),
		},
		Temperature:    oai.Float(c.temperature),
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &format},
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	v, ok := partialjson.Parse(resp.Choices[0].Message.Content)
	if !ok {
		return nil, ErrEmptyResponse
	}
	return v, nil
}

type chunkStream struct {
	stream  *ssestream.Stream[oai.ChatCompletionChunk]
	chunk   string
	partial strings.Builder
}

func (s *chunkStream) Next() bool {
	for s.stream.Next() {
		ev := s.stream.Current()
		if len(ev.Choices) == 0 {
			continue
		}
		delta := ev.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		s.chunk = delta
		s.partial.WriteString(delta)
		return true
	}
	return false
}

func (s *chunkStream) Chunk() string { return s.chunk }

func (s *chunkStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return &StreamError{Partial: s.partial.String(), Err: err}
	}
	return nil
}

func (s *chunkStream) Close() error { return s.stream.Close() }
