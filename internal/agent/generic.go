package agent

import "fmt"

// Base URLs for OpenAI-compatible third-party endpoints.
var compatBaseURLs = map[string]string{
	"deepseek": "https://api.deepseek.com/v1",
	"qwen":     "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"grok":     "https://api.x.ai/v1",
	"yi":       "https://api.lingyiwanwu.com/v1",
}

// NewCompatAgent creates an agent for an OpenAI-compatible provider
// (deepseek, qwen, grok, yi). cfg.BaseURL overrides the provider default.
func NewCompatAgent(provider string, cfg Config, limiter *Limiter) (*OpenAIAgent, error) {
	baseURL, ok := compatBaseURLs[provider]
	if !ok {
		return nil, fmt.Errorf("unknown compatible provider: %q (supported: deepseek, qwen, grok, yi)", provider)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}

	return newOpenAICompatible(provider, cfg, limiter)
}
