package model

import (
	"fmt"
	"time"
)

// Config is the complete Consilium configuration. Values come from flags,
// CONSILIUM_* environment variables or ~/.consilium/config.yaml; the
// resolution mechanism lives in the CLI layer.
type Config struct {
	Pool      PoolConfig      `yaml:"pool" mapstructure:"pool"`
	Consensus ConsensusConfig `yaml:"consensus" mapstructure:"consensus"`
	Corpus    CorpusConfig    `yaml:"corpus" mapstructure:"corpus"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// PoolConfig controls agent pool construction and per-agent execution.
type PoolConfig struct {
	MaxAgents         int           `yaml:"max_agents" mapstructure:"max_agents"`
	AgentTimeout      time.Duration `yaml:"agent_timeout" mapstructure:"agent_timeout"`
	MaxTokens         int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64       `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerMinute float64       `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// ConsensusConfig tunes the consensus engine. Both values are fixed at
// engine construction.
type ConsensusConfig struct {
	MinConfidence      float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	AgreementThreshold float64 `yaml:"agreement_threshold" mapstructure:"agreement_threshold"`
}

// CorpusConfig controls document retrieval.
type CorpusConfig struct {
	MaxDocuments int           `yaml:"max_documents" mapstructure:"max_documents"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	CacheEnabled bool          `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	CacheDir     string        `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			MaxAgents:         15,
			AgentTimeout:      300 * time.Second,
			MaxTokens:         4000,
			Temperature:       0.7,
			RequestsPerMinute: 60,
		},
		Consensus: ConsensusConfig{
			MinConfidence:      0.6,
			AgreementThreshold: 0.7,
		},
		Corpus: CorpusConfig{
			MaxDocuments: 10,
			Timeout:      30 * time.Second,
			UserAgent:    "Consilium/0.1 (+https://github.com/ppiankov/consilium)",
			MaxBodyBytes: 2_000_000,
			CacheEnabled: true,
			CacheDir:     "./.consilium-cache",
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}

// Validate surfaces impossible configuration once, at construction time.
func (c *Config) Validate() error {
	if c.Pool.MaxAgents <= 0 {
		return fmt.Errorf("pool.max_agents must be positive, got %d", c.Pool.MaxAgents)
	}
	if c.Pool.AgentTimeout <= 0 {
		return fmt.Errorf("pool.agent_timeout must be positive, got %v", c.Pool.AgentTimeout)
	}
	if c.Consensus.MinConfidence < 0 || c.Consensus.MinConfidence > 1 {
		return fmt.Errorf("consensus.min_confidence must be in [0,1], got %g", c.Consensus.MinConfidence)
	}
	if c.Consensus.AgreementThreshold < 0 || c.Consensus.AgreementThreshold > 1 {
		return fmt.Errorf("consensus.agreement_threshold must be in [0,1], got %g", c.Consensus.AgreementThreshold)
	}
	if c.Corpus.MaxDocuments <= 0 {
		return fmt.Errorf("corpus.max_documents must be positive, got %d", c.Corpus.MaxDocuments)
	}
	return nil
}
