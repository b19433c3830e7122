package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/examgen/internal/llm"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the provider chain and retry schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		chain, err := llm.NewChain(cmd.Context(), cfg.LLM, nil)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "%-3s  %-12s  %-36s  %s\n", "#", "Provider", "Model", "Role")
		fmt.Fprintln(out, strings.Repeat("─", 70))
		for i, p := range chain.Providers() {
			role := "fallback"
			if i == 0 {
				role = "primary"
			}
			fmt.Fprintf(out, "%-3d  %-12s  %-36s  %s\n", i+1, p.Name(), p.ModelID(), role)
		}

		policy := chain.Policy()
		fmt.Fprintf(out, "\nAttempts per provider: %d (delay %s)\n", max(policy.MaxAttempts, 1), policy.Delay)
		fmt.Fprint(out, "Timeouts:")
		for _, d := range policy.Schedule() {
			fmt.Fprintf(out, " %s", d)
		}
		fmt.Fprintln(out)
		if cfg.Generation.DefaultBudget > 0 {
			fmt.Fprintf(out, "Default budget: %s\n", cfg.Generation.DefaultBudget)
		}
		return nil
	},
}
