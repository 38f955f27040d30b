package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/consilium/internal/agent"
	"github.com/ppiankov/consilium/internal/model"
	"github.com/spf13/cobra"
)

var (
	checkAvailability bool
	checkTimeout      time.Duration
)

// agentsCmd represents the agents command
var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agent pool built from configured credentials",
	Long: `Agents shows which LLM agents Consilium would use for an analysis,
based on the API keys present in the environment. With --check, each
agent's endpoint is probed for reachability.

Example:
  consilium agents
  consilium agents --check`,
	RunE: runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)

	agentsCmd.Flags().BoolVar(&checkAvailability, "check", false, "probe each agent's endpoint for availability")
	agentsCmd.Flags().DurationVar(&checkTimeout, "check-timeout", 10*time.Second, "per-agent availability probe timeout")
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg := model.DefaultConfig()
	creds := agent.CredentialsFromEnv()

	agents, err := agent.NewPool(creds, cfg.Pool)
	if err != nil {
		return fmt.Errorf("build agent pool: %w", err)
	}

	fmt.Printf("Agent pool (%d):\n\n", len(agents))

	for _, a := range agents {
		if checkAvailability {
			ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
			status := "unreachable"
			if a.Available(ctx) {
				status = "ok"
			}
			cancel()
			fmt.Printf("  %-28s %-40s [%s]\n", a.ID(), a.Label(), status)
		} else {
			fmt.Printf("  %-28s %s\n", a.ID(), a.Label())
		}
	}

	fmt.Println()
	return nil
}
