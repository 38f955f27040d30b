package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ppiankov/consilium/internal/model"
)

const analystSystemPrompt = "You are an expert research analyst. Follow the requested response structure exactly."

// OpenAIAgent implements the Agent interface for OpenAI chat models and for
// any OpenAI-compatible endpoint reachable through a custom base URL.
type OpenAIAgent struct {
	id       string
	provider string
	client   *openai.Client
	cfg      Config
	limiter  *Limiter
}

// NewOpenAIAgent creates a new OpenAI-backed agent.
func NewOpenAIAgent(cfg Config, limiter *Limiter) (*OpenAIAgent, error) {
	return newOpenAICompatible("openai", cfg, limiter)
}

// newOpenAICompatible builds an agent speaking the OpenAI chat protocol,
// optionally against a non-OpenAI endpoint.
func newOpenAICompatible(provider string, cfg Config, limiter *Limiter) (*OpenAIAgent, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", provider)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s model name is required", provider)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIAgent{
		id:       cfg.ID,
		provider: provider,
		client:   openai.NewClientWithConfig(clientConfig),
		cfg:      cfg,
		limiter:  limiter,
	}, nil
}

// ID returns the stable pool-entry identifier.
func (a *OpenAIAgent) ID() string {
	return a.id
}

// Label returns a human-readable model label.
func (a *OpenAIAgent) Label() string {
	return fmt.Sprintf("%s/%s", a.provider, a.cfg.Model)
}

// Available checks if the backend is configured and reachable.
func (a *OpenAIAgent) Available(ctx context.Context) bool {
	_, err := a.client.ListModels(ctx)
	return err == nil
}

// Produce analyzes the corpus with one chat completion call.
func (a *OpenAIAgent) Produce(ctx context.Context, req Request) (*model.Opinion, error) {
	started := time.Now()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, a.provider); err != nil {
			return nil, WrapError(KindOf(err), "rate limit wait", err)
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analystSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req.Query, req.Corpus, req.Dimension)},
		},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: float32(a.cfg.Temperature),
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyOpenAIError(a.provider, err)
	}

	if len(resp.Choices) == 0 {
		return nil, Errorf(KindMalformed, "no choices in %s response", a.provider)
	}

	return buildOpinion(a.id, req, resp.Choices[0].Message.Content, started)
}

// classifyOpenAIError maps transport errors onto the agent failure taxonomy.
func classifyOpenAIError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(KindTimeout, provider+" call", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return WrapError(classifyStatus(apiErr.HTTPStatusCode), provider+" call", err)
	}

	return WrapError(KindTransport, provider+" call", err)
}
