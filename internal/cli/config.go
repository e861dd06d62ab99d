// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handlers for hearth CLI.
//
// Handles the "hearth config" command for reading and changing settings.
// All keys use dot notation (section.field), matching the TOML layout.
//
// Command: config [get|set|list|path]
// Short:   Read or change configuration
// Aliases: cfg
//
// Examples:
//   hearth config list
//   hearth config get generation.preset
//   hearth config set generation.preset creative
//   hearth config set history.enabled false
//   hearth config path
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/hearth-tui/internal/config"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	configKeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	configValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	configSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	configHeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig handles the "config" command and its subcommands.
func HandleConfig(args Args) {
	var err error
	switch strings.ToLower(args.Subcommand) {
	case "", "list", "show":
		err = handleConfigList(args)
	case "get":
		err = handleConfigGet(args)
	case "set":
		err = handleConfigSet(args)
	case "path":
		err = handleConfigPath(args)
	default:
		err = fmt.Errorf("unknown config subcommand: %s (expected get, set, list, or path)", args.Subcommand)
	}
	if err != nil {
		HandleErrorAndExit(err, args.JSON)
	}
}

// handleConfigList prints every key with its current value.
func handleConfigList(args Args) error {
	cfg := config.Global()

	if args.JSON {
		values := make(map[string]interface{})
		for _, key := range config.GetAllKeys() {
			if v, err := cfg.Get(key); err == nil {
				values[key] = v
			}
		}
		path, _ := config.ConfigPathTOML()
		resp := NewJSONResponse("config", ConfigData{Values: values, Path: path})
		resp.Print()
		return nil
	}

	fmt.Println(configHeaderStyle.Render("Configuration:"))
	fmt.Println()

	lastSection := ""
	for _, key := range config.GetAllKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}

		// Blank line between sections keeps the listing scannable
		section := ""
		if i := strings.Index(key, "."); i >= 0 {
			section = key[:i]
		}
		if section != lastSection && lastSection != "" {
			fmt.Println()
		}
		lastSection = section

		fmt.Printf("  %s = %s\n",
			configKeyStyle.Render(fmt.Sprintf("%-25s", key)),
			configValueStyle.Render(fmt.Sprintf("%v", value)))
	}

	if path, err := config.ConfigPathTOML(); err == nil {
		fmt.Println()
		fmt.Printf("  File: %s\n", path)
	}
	return nil
}

// handleConfigGet prints a single value.
func handleConfigGet(args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "hearth config get generation.preset")
	}

	cfg := config.Global()
	value, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return NewNotFoundError("config key", args.ConfigKey)
	}

	if args.JSON {
		resp := NewJSONResponse("config", map[string]interface{}{
			"key":   args.ConfigKey,
			"value": value,
		})
		resp.Print()
		return nil
	}

	fmt.Printf("%v\n", value)
	return nil
}

// handleConfigSet changes one value, validates the result, and persists it.
func handleConfigSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return ErrMissingArgument("key and value", "hearth config set generation.preset creative")
	}

	key := strings.ToLower(args.ConfigKey)
	cfg := config.Global()
	value := args.ConfigVal

	// USABILITY: accept yes/no/on/off for boolean keys, not just true/false
	if cur, err := cfg.Get(key); err == nil {
		if _, isBool := cur.(bool); isBool {
			if b, err := ParseBoolString(value); err == nil {
				value = fmt.Sprintf("%t", b)
			}
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return NewValidationErrorWithExample(key, args.ConfigVal, err.Error(), "hearth config list")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("could not save config: %w", err)
	}

	if args.JSON {
		resp := NewJSONResponse("config", map[string]interface{}{
			"key":   key,
			"value": value,
			"saved": true,
		})
		resp.Print()
		return nil
	}

	fmt.Printf("%s %s = %s\n", configSuccessStyle.Render("[OK]"), key, value)
	return nil
}

// handleConfigPath prints where hearth keeps its files.
func handleConfigPath(args Args) error {
	cfg := config.Global()

	configPath, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	historyPath, _ := cfg.HistoryPath()
	indexPath, _ := cfg.IndexPath()
	modelsDir, _ := cfg.ModelsDir()

	if args.JSON {
		resp := NewJSONResponse("config", map[string]interface{}{
			"config":  configPath,
			"history": historyPath,
			"index":   indexPath,
			"models":  modelsDir,
		})
		resp.Print()
		return nil
	}

	exists := ""
	if _, err := os.Stat(configPath); err == nil {
		exists = " (exists)"
	} else {
		exists = " (not created yet; defaults active)"
	}

	fmt.Printf("  %-9s %s%s\n", "Config:", configPath, exists)
	fmt.Printf("  %-9s %s\n", "History:", historyPath)
	fmt.Printf("  %-9s %s\n", "Index:", indexPath)
	fmt.Printf("  %-9s %s\n", "Models:", modelsDir)
	return nil
}
