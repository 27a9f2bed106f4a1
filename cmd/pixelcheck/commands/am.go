package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/pixelcheck/am"
	"github.com/teranos/pixelcheck/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage pixelcheck configuration",
	Long: `am: manage pixelcheck configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (PIXELCHECK_* prefix, plus FIGMA_TOKEN and provider keys)
3. Project config (./am.toml, searched up directories)
4. User config (~/.pixelcheck/am.toml)
5. System config (/etc/pixelcheck/am.toml)
6. Default values

Examples:
  pixelcheck am show                     # Show current configuration
  pixelcheck am show --format json       # Show configuration in JSON format
  pixelcheck am get oracle.provider      # Get specific config value
  pixelcheck am set matcher.enabled true # Persist a value to ~/.pixelcheck/am.toml
  pixelcheck am validate                 # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective configuration from all sources, credentials masked",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., oracle.provider, matcher.debounce_ms)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Long:  "Write one dotted key to the user config file (or --file). The previous file is kept as .back1.",
	Args:  cobra.ExactArgs(2),
	RunE:  runAmSet,
}

var amInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runAmInit,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runAmWhere,
}

var (
	configFormat string
	configFile   string
	forceInit    bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amSetCmd.Flags().StringVar(&configFile, "file", "", "Config file to edit (default ~/.pixelcheck/am.toml)")
	amInitCmd.Flags().StringVar(&configFile, "file", "", "Config file to write (default ~/.pixelcheck/am.toml)")
	amInitCmd.Flags().BoolVar(&forceInit, "force", false, "Replace an existing file")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	cfg = cfg.Redacted()
	out := cmd.OutOrStdout()

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# pixelcheck configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# pixelcheck configuration\n%s", string(data))

	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.NewNotFoundError("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func targetFile() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	path, err := am.UserConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	return path, nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path, err := targetFile()
	if err != nil {
		return err
	}
	if err := am.SetValue(path, args[0], args[1]); err != nil {
		return err
	}
	// Reload so the new value is validated in context
	am.Reset()
	if _, err := am.LoadFromFile(path); err != nil {
		return errors.WithHint(err, "the value was written; fix it with another am set")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s (%s)\n", args[0], args[1], path)
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path, err := targetFile()
	if err != nil {
		return err
	}
	if err := am.WriteConfig(path, am.DefaultConfig(), forceInit); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote default configuration to %s\n", path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	// Load validates; a failure carries the offending key
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  [DEFAULT]  Built-in defaults")
	for _, path := range am.SearchPaths() {
		state := "missing"
		if _, err := os.Stat(path); err == nil {
			state = "loaded"
		}
		fmt.Fprintf(out, "  [FILE]     %s (%s)\n", path, state)
	}
	fmt.Fprintf(out, "  [ENV]      %s_* environment variables\n", am.EnvPrefix)
	return nil
}
