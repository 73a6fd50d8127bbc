package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change configuration values stored in the TOML config file.

Keys use dot notation, e.g. llm.backend or retrieval.top_k. Changes to
llm.backend and llm.model are validated before they are saved.`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	keys := configStore.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		val, _ := configStore.Get(key)
		cmd.Printf("%s = %s\n", key, displayValue(key, val))
	}

	if settingsService != nil {
		if err := settingsService.Validate(); err != nil {
			cmd.Printf("\nWarning: %v\n", err)
		}
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown config key: %s", args[0])
	}
	cmd.Println(displayValue(args[0], val))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	key, raw := args[0], args[1]

	// Backend and model changes go through the settings service so the
	// name is validated and a live provider is reconfigured.
	switch key {
	case "llm.backend":
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		if err := settingsService.SetBackend(cmd.Context(), raw, ""); err != nil {
			return err
		}
	case "llm.model":
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		if err := settingsService.SetModel(cmd.Context(), raw); err != nil {
			return err
		}
	default:
		if err := configStore.Set(key, parseConfigValue(raw)); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	val, _ := configStore.Get(key)
	cmd.Printf("%s = %s\n", key, displayValue(key, val))

	if settingsService != nil {
		if err := settingsService.Validate(); err != nil {
			cmd.Printf("Warning: %v\n", err)
		}
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	cmd.Println(configStore.Path())
	return nil
}

// parseConfigValue narrows a raw string to int, float or bool where it
// parses as one, keeping the stored file typed.
func parseConfigValue(raw string) any {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return v
	}
	return raw
}

// displayValue renders a config value for output, masking API keys.
func displayValue(key string, val any) string {
	s := fmt.Sprintf("%v", val)
	if strings.HasSuffix(key, "api_key") && s != "" {
		return maskAPIKey(s)
	}
	return s
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
