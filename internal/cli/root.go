// Package cli defines the Cobra command tree for the promptweave CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "promptweave",
	Short: "Template-driven prompt assembly with token-aware truncation",
	Long: `Promptweave renders LLM prompts from templates and data, tokenizes the
result, and trims low-priority sections to fit a token budget.

Templates are Go text/templates that emit a YAML list of parts. Each part
carries a role and an optional truncation priority; parts with a positive
priority are dropped oldest-first when the prompt exceeds its token limit.

Run 'promptweave render <template>' to render a template against a YAML
data file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(
		newRenderCmd(),
		newCountCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("promptweave %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
