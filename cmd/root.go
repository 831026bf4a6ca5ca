package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/arvanehlab/ravan_backend/cmd/http"
	systemcmd "github.com/arvanehlab/ravan_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "ravan",
	Short: "Ravan self-assessment and crisis-escalation service.",
	Long: `Ravan runs guided mental-health self-assessments: consent-gated Likert
questionnaires scored by an external authority, with same-week appointment
booking offered when the result calls for escalation.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
