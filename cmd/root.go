package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pitfacts/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pitfacts",
	Short: "Point-in-time financial facts from EDGAR company filings",
	Long: `Normalizes reported XBRL facts into disclosure-dated records, builds
amendment-resolved filing timelines, and computes trailing metrics anchored
at filing dates.

Settings come from ./config.yaml and PITFACTS_* environment variables; the
flags below override both for a single invocation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := applyRootFlags(cmd, c); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("config loaded",
			zap.String("command", cmd.Name()),
			zap.String("store", cfg.Store.Driver),
			zap.String("snapshot", cfg.Classify.SnapshotPath),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	addRootFlags(rootCmd)
}

func addRootFlags(c *cobra.Command) {
	c.PersistentFlags().String("store", "", "store driver override: postgres, sqlite, or memory")
	c.PersistentFlags().String("snapshot", "", "reference snapshot path override")
	c.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
}

// applyRootFlags copies explicitly set root flags onto c and re-validates it.
func applyRootFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("store") {
		c.Store.Driver, _ = flags.GetString("store")
	}
	if flags.Changed("snapshot") {
		c.Classify.SnapshotPath, _ = flags.GetString("snapshot")
	}
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
	return eris.Wrap(c.Validate(), "root flags")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
