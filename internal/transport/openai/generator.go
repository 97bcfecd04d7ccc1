package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

const systemPrompt = "You are a helpful assistant that answers questions based on provided context. " +
	"If the answer is not in the context, say so."

// Generator produces answers using the OpenAI-compatible chat completions API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	provider    string
	logger      *zap.Logger
}

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Provider    string
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generation provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

func (g *Generator) chatRequest(contextText, question string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question),
			},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, contextText, question string) (domain.GenerationResult, error) {
	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, g.chatRequest(contextText, question))

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "api_error").Inc()
		return domain.GenerationResult{}, parseAPIError("generation", err, domain.ErrGenerationProviderError)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "empty_response").Inc()
		return domain.GenerationResult{}, fmt.Errorf("empty completion response: %w", domain.ErrGenerationProviderError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	g.recordUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)

	return domain.GenerationResult{
		Answer:           resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// GenerateStream implements domain.StreamGenerator. onDelta is called once per
// answer fragment in order; an error from onDelta aborts the stream.
func (g *Generator) GenerateStream(
	ctx context.Context,
	contextText, question string,
	onDelta func(delta string) error,
) (domain.GenerationResult, error) {
	req := g.chatRequest(contextText, question)
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	start := time.Now()

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "api_error").Inc()
		return domain.GenerationResult{}, parseAPIError("generation", err, domain.ErrGenerationProviderError)
	}
	defer stream.Close()

	var answer strings.Builder
	var result domain.GenerationResult

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
			metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, "stream_error").Inc()
			return domain.GenerationResult{}, parseAPIError("generation", recvErr, domain.ErrGenerationProviderError)
		}

		// Usage arrives in the final chunk with empty choices.
		if chunk.Usage != nil {
			result.PromptTokens = chunk.Usage.PromptTokens
			result.CompletionTokens = chunk.Usage.CompletionTokens
			result.TotalTokens = chunk.Usage.TotalTokens
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}

		answer.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return domain.GenerationResult{}, fmt.Errorf("deliver delta: %w", err)
		}
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(time.Since(start).Seconds())
	g.recordUsage(result.PromptTokens, result.CompletionTokens, result.TotalTokens)

	result.Answer = answer.String()
	return result, nil
}

func (g *Generator) recordUsage(prompt, completion, total int) {
	if total <= 0 {
		return
	}
	metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(prompt))
	metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(completion))
	metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "total").Add(float64(total))
}
