package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beelab/dancereview/cmd/configcmd"
	"github.com/beelab/dancereview/cmd/reconcile"
	"github.com/beelab/dancereview/cmd/serve"
	"github.com/beelab/dancereview/cmd/summary"
	"github.com/beelab/dancereview/internal/buildinfo"
	"github.com/beelab/dancereview/internal/conf"
	"github.com/beelab/dancereview/internal/logger"
	"github.com/beelab/dancereview/internal/telemetry"
)

// RootCommand creates and returns the root command
func RootCommand(info *buildinfo.Context) *cobra.Command {
	var configFile string
	var central *logger.CentralLogger
	flush := func() {}

	rootCmd := &cobra.Command{
		Use:          "dancereview",
		Short:        "Review and correct waggle dance detections",
		Long:         "Browse bee dance videos page by page and correct their category and dance type.",
		SilenceUsage: true,
	}

	if err := setupFlags(rootCmd, &configFile); err != nil {
		panic(err)
	}

	versionCmd := versionCommand(info)
	configCmd := configcmd.Command()

	rootCmd.AddCommand(
		serve.Command(info),
		summary.Command(),
		reconcile.Command(),
		configCmd,
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}

		settings, err := conf.Load(configFile)
		if err != nil {
			return err
		}

		central, err = logger.NewCentralLogger(&settings.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logger.SetGlobal(central)

		flush, err = telemetry.Init(&settings.Telemetry, info)
		if err != nil {
			// Telemetry is optional, keep going without it.
			central.Module("main").Warn("Telemetry disabled", logger.Error(err))
			flush = func() {}
		}

		if used := conf.ConfigFileUsed(); used != "" {
			central.Module("main").Debug("Configuration loaded", logger.String("path", used))
		}
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		flush()
		if central != nil {
			return central.Close()
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(configFile, "config", "", "Path to config.yaml")
	flags.Bool("debug", false, "Enable debug output")
	flags.StringP("directory", "d", "", "Review directory containing data.csv and the video folders")
	flags.Int("rows", 0, "Grid rows per page (1-5)")
	flags.Int("columns", 0, "Grid columns per page (1-10)")
	flags.String("category", "", "Category to review first (tagged or untagged)")

	bindings := map[string]string{
		"debug":            "debug",
		"review.directory": "directory",
		"review.rows":      "rows",
		"review.columns":   "columns",
		"review.category":  "category",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

func versionCommand(info *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dancereview %s (built %s)\n", info.GetVersion(), info.GetBuildDate())
		},
	}
}
