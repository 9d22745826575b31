package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	cfg     settings
	logger  = slog.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a config file (default ./lifecards.yaml)")
	rootCmd.PersistentFlags().String("hints", ".", "Directory holding hint files")
	rootCmd.PersistentFlags().String("db", "", "Packed hint database (takes precedence over --hints)")
	rootCmd.PersistentFlags().String("selector", "", "JSONPath selecting records inside each hint document")
	rootCmd.PersistentFlags().Bool("prune", false, "Unmount children a later render no longer delivers")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(buildCmd)
}

var rootCmd = &cobra.Command{
	Use:   "lifecards",
	Short: "Render a graph of cards from hint documents",
	Long: `lifecards keeps a graph of records keyed by path-like identities, loads
them lazily from hint documents, and renders them into a tree of nodes that
is reconciled in place across renders and navigation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cfgPath, cmd.Flags())
		if err != nil {
			return err
		}
		l, err := newLogger(c.LogLevel)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		slog.SetDefault(l)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
