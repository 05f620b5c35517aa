// Package configcmd implements the config command group.
package configcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/beelab/dancereview/internal/conf"
	"github.com/beelab/dancereview/internal/errors"
)

// Command creates the config command and its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(initCommand())
	return cmd
}

func initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective configuration to a YAML file",
		Long: "Write the current settings, defaults included, to path. " +
			"Without a path the file goes to the user configuration directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			written, err := Init(conf.Setting(), path, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", written)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// Init writes settings to path, or to config.yaml in the last default
// config directory when path is empty. An existing file is only replaced
// when force is set.
func Init(settings *conf.Settings, path string, force bool) (string, error) {
	if path == "" {
		paths := conf.GetDefaultConfigPaths()
		path = filepath.Join(paths[len(paths)-1], "config.yaml")
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", errors.Newf("%s already exists, use --force to overwrite", path).
			Component("config").
			Category(errors.CategoryConfiguration).
			Context("path", path).
			Build()
	}

	if err := conf.SaveYAMLConfig(path, settings); err != nil {
		return "", errors.New(err).
			Component("config").
			Category(errors.CategoryConfiguration).
			Context("path", path).
			Build()
	}
	return path, nil
}
