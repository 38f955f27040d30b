package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

const sampleConfigYAML = `pool:
  max_agents: 5
  agent_timeout: 120s
consensus:
  min_confidence: 0.4
`

// Tests below mutate the package-level viper and flag state, so they run
// in declaration order: file-value resolution first, flag precedence after.

func TestBuildConfig_FileValuesApplied(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(strings.NewReader(sampleConfigYAML)); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildConfig(analyzeCmd)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Pool.MaxAgents != 5 {
		t.Errorf("expected max_agents 5 from config file, got %d", cfg.Pool.MaxAgents)
	}
	if cfg.Pool.AgentTimeout != 120*time.Second {
		t.Errorf("expected agent_timeout 120s from config file, got %v", cfg.Pool.AgentTimeout)
	}
	if cfg.Consensus.MinConfidence != 0.4 {
		t.Errorf("expected min_confidence 0.4 from config file, got %v", cfg.Consensus.MinConfidence)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Corpus.MaxDocuments != 10 {
		t.Errorf("expected default max_documents 10, got %d", cfg.Corpus.MaxDocuments)
	}
	if cfg.Consensus.AgreementThreshold != 0.7 {
		t.Errorf("expected default agreement_threshold 0.7, got %v", cfg.Consensus.AgreementThreshold)
	}
}

func TestBuildConfig_FlagOverridesFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.SetConfigType("yaml")
	if err := viper.ReadConfig(strings.NewReader(sampleConfigYAML)); err != nil {
		t.Fatal(err)
	}

	if err := analyzeCmd.Flags().Set("max-agents", "7"); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildConfig(analyzeCmd)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Pool.MaxAgents != 7 {
		t.Errorf("expected explicit flag to win over config file, got %d", cfg.Pool.MaxAgents)
	}
	// The file still supplies values for flags left at their defaults.
	if cfg.Consensus.MinConfidence != 0.4 {
		t.Errorf("expected min_confidence 0.4 from config file, got %v", cfg.Consensus.MinConfidence)
	}
}
