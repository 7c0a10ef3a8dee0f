package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"roost/pkg/auth"
	"roost/pkg/config"
	"roost/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage roost configuration files.

Configuration is merged from, in order of priority:
  - Command line flags
  - Environment variables (ROOST_*, also read from .env and ~/.roost.env)
  - Configuration file
  - Default values`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the default values",
	Long: `Write every option with its default value. The file is created as
.roost.yaml unless a path or --config is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and check for credentials",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		path = ".roost.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Output, "\nNext steps:")
	fmt.Fprintln(ui.Output, "1. Run 'roost auth login' to store your OAuth credentials")
	fmt.Fprintln(ui.Output, "2. Run 'roost config validate' to check the setup")
	fmt.Fprintln(ui.Output, "3. Try 'roost rlimit'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// setup already loaded and validated the configuration
	var warnings []string

	if _, err := credentials(); err != nil {
		switch {
		case errors.Is(err, auth.ErrCredentialsNotFound):
			warnings = append(warnings, fmt.Sprintf("no credentials for profile %q", cfg.Profile.Name))
		default:
			return fmt.Errorf("credentials: %w", err)
		}
	}
	if len(cfg.Stream.Track) == 0 {
		warnings = append(warnings, "stream.track is empty; the stream command needs --track")
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		warnings = append(warnings, "client-side pacing is off; only the server quota is honoured")
	}

	for _, w := range warnings {
		ui.PrintWarning("warning", w)
	}
	ui.PrintSuccess("Configuration is valid")
	return nil
}
