package agent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/consilium/internal/model"
)

// Config holds the settings for one pool entry.
type Config struct {
	ID          string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// Credentials holds the API keys available at process start. The pool is
// built once from whatever is present; missing credentials simply mean
// fewer agents.
type Credentials struct {
	OpenAIKeys    []string
	AnthropicKeys []string
	GoogleKeys    []string
	DeepSeekKey   string
	QwenKey       string
	XAIKey        string
	YiKey         string
	OllamaBaseURL string
	OllamaModels  []string
}

// CredentialsFromEnv reads provider credentials from the environment.
// Multi-key variables accept comma-separated lists.
func CredentialsFromEnv() Credentials {
	return Credentials{
		OpenAIKeys:    splitKeys(os.Getenv("OPENAI_API_KEY")),
		AnthropicKeys: splitKeys(os.Getenv("ANTHROPIC_API_KEY")),
		GoogleKeys:    splitKeys(os.Getenv("GOOGLE_API_KEY")),
		DeepSeekKey:   os.Getenv("DEEPSEEK_API_KEY"),
		QwenKey:       os.Getenv("QWEN_API_KEY"),
		XAIKey:        os.Getenv("XAI_API_KEY"),
		YiKey:         os.Getenv("YI_API_KEY"),
		OllamaBaseURL: os.Getenv("OLLAMA_BASE_URL"),
		OllamaModels:  splitKeys(os.Getenv("OLLAMA_MODELS")),
	}
}

func splitKeys(raw string) []string {
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

// poolBuilder accumulates agents up to the configured cap.
type poolBuilder struct {
	agents []Agent
	seen   map[string]int
	max    int
}

// add appends an agent unless the pool is full or construction failed.
// Construction failures are reported but never abort pool building.
func (b *poolBuilder) add(a Agent, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: skipping agent: %v\n", err)
		return
	}
	if len(b.agents) >= b.max {
		return
	}
	b.agents = append(b.agents, a)
}

// agentID derives a stable pool-entry identifier from the model name.
// Duplicate models from multiple keys get a numeric suffix.
func (b *poolBuilder) agentID(modelName string) string {
	base := strings.ToLower(modelName)
	b.seen[base]++
	if n := b.seen[base]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}

// NewPool builds the ordered agent pool from available credentials.
// Pool order is fixed at construction and never changes afterwards, so
// downstream consumers can rely on it for reproducible output ordering.
// An empty pool is a fatal configuration error, not a per-call failure.
func NewPool(creds Credentials, cfg model.PoolConfig) ([]Agent, error) {
	limiter := NewLimiter(cfg.RequestsPerMinute, 5)

	b := &poolBuilder{
		seen: make(map[string]int),
		max:  cfg.MaxAgents,
	}

	entry := func(modelName, key string) Config {
		return Config{
			ID:          b.agentID(modelName),
			Model:       modelName,
			APIKey:      key,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}
	}

	for i, key := range creds.AnthropicKeys {
		if i >= 2 {
			break
		}
		for _, m := range []string{"claude-3-opus-20240229", "claude-3-5-sonnet-20241022"} {
			a, err := NewAnthropicAgent(entry(m, key), limiter)
			b.add(a, err)
		}
	}

	for i, key := range creds.OpenAIKeys {
		if i >= 3 {
			break
		}
		for _, m := range []string{"gpt-4o", "o1-preview"} {
			a, err := NewOpenAIAgent(entry(m, key), limiter)
			b.add(a, err)
		}
	}

	for i, key := range creds.GoogleKeys {
		if i >= 2 {
			break
		}
		a, err := NewGeminiAgent(entry("gemini-2.0-flash-thinking-exp", key), limiter)
		b.add(a, err)
	}

	if creds.DeepSeekKey != "" {
		a, err := NewCompatAgent("deepseek", entry("deepseek-reasoner", creds.DeepSeekKey), limiter)
		b.add(a, err)
	}

	if creds.QwenKey != "" {
		a, err := NewCompatAgent("qwen", entry("qwq-32b-preview", creds.QwenKey), limiter)
		b.add(a, err)
	}

	if creds.XAIKey != "" {
		a, err := NewCompatAgent("grok", entry("grok-2-latest", creds.XAIKey), limiter)
		b.add(a, err)
	}

	if creds.YiKey != "" {
		a, err := NewCompatAgent("yi", entry("yi-lightning", creds.YiKey), limiter)
		b.add(a, err)
	}

	for _, m := range creds.OllamaModels {
		c := entry(m, "")
		c.BaseURL = creds.OllamaBaseURL
		a, err := NewOllamaAgent(c, limiter)
		b.add(a, err)
	}

	if len(b.agents) == 0 {
		return nil, fmt.Errorf("no agents could be constructed: set at least one of OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY, DEEPSEEK_API_KEY, QWEN_API_KEY, XAI_API_KEY, YI_API_KEY or OLLAMA_MODELS")
	}

	return b.agents, nil
}
