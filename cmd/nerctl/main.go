// Command nerctl runs named-entity extraction on a csv or xlsx file in
// place and keeps a durable undo history next to it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"refinener/internal/config"
	"refinener/internal/logging"
	"refinener/internal/provider"
	"refinener/internal/provider/builtin"
)

var (
	cfg       *config.Config
	providers *provider.Manager
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "nerctl",
	Short: "Named-entity extraction for tabular files",
	Long: `nerctl adds named-entity columns to a csv or xlsx file using one or more
extraction providers, and can undo and redo those changes later.

Provider credentials and defaults come from the REFINENER_* environment, the
optional REFINENER_CONFIG file, and the provider settings file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logging.Setup(cfg.Log)
		if verbose {
			logging.SetDebug(true)
		}

		builtin.RegisterAll()
		providers, err = provider.NewManager(cfg.Providers.List, cfg.Providers.SettingsFile)
		if err != nil {
			return err
		}
		return providers.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log per-row progress")
	rootCmd.AddCommand(extractCmd, undoCmd, redoCmd, historyCmd, providersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
