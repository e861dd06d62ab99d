// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - Model registry and weights management for hearth CLI.
//
// Handles the "hearth models" command: list the registry, pull weights into
// the local cache, and remove installed weights.
//
// Command: models [list|pull|rm]
// Short:   Manage local model weights
// Aliases: model
//
// Examples:
//   hearth models                 List registry and installed models
//   hearth models pull phi-2      Download phi-2 weights
//   hearth models rm phi-2        Remove downloaded weights
//   hearth models rm phi-2 --confirm
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/hearth-tui/internal/config"
	"github.com/jeranaias/hearth-tui/internal/modelcache"
)

// HandleModelsCommand handles the "models" command.
func HandleModelsCommand(args Args) error {
	switch args.Subcommand {
	case "", "list", "ls":
		return handleModelsList(args)
	case "pull", "get", "download":
		return handleModelsPull(args)
	case "rm", "remove", "delete":
		return handleModelsRemove(args)
	default:
		return fmt.Errorf("unknown models subcommand: %s (expected list, pull, or rm)", args.Subcommand)
	}
}

// openModelCache opens the weights cache at the configured directory.
func openModelCache() (*modelcache.Cache, error) {
	dir, err := config.Global().ModelsDir()
	if err != nil {
		return nil, err
	}
	return modelcache.New(dir)
}

// handleModelsList prints the registry with install state.
func handleModelsList(args Args) error {
	cache, err := openModelCache()
	if err != nil {
		return err
	}

	cfg := config.Global()
	defaultID := cfg.DefaultModel
	if defaultID == "" {
		defaultID = modelcache.DefaultModelID
	}

	if args.JSON {
		var infos []ModelInfo
		for _, id := range modelcache.IDs() {
			spec, _ := modelcache.Lookup(id)
			infos = append(infos, ModelInfo{
				ID:          spec.ID,
				Name:        spec.Name,
				Params:      spec.Params,
				Context:     spec.ContextLength,
				SizeBytes:   spec.SizeBytes,
				Installed:   cache.IsCached(spec),
				Default:     spec.ID == defaultID,
				Description: spec.Description,
			})
		}
		resp := NewJSONResponse("models", ModelsData{Models: infos, Dir: cache.Dir()})
		resp.Print()
		return nil
	}

	fmt.Println(TitleStyle.Render("Available models:"))
	fmt.Printf("    %-20s %-7s %-11s %-9s %s\n", "ID", "PARAMS", "CONTEXT", "SIZE", "STATUS")
	for _, id := range modelcache.IDs() {
		spec, _ := modelcache.Lookup(id)

		marker := "  "
		if spec.ID == defaultID {
			marker = "* "
		}
		status := "-"
		if cache.IsCached(spec) {
			status = "installed"
		}
		fmt.Printf("  %s%-20s %-7s %-11s %-9s %s\n",
			marker, spec.ID, spec.Params, spec.ContextString(), spec.SizeString(), status)
	}

	// Directories left behind by registry changes still occupy disk; list
	// them so rm can reclaim the space.
	installed, err := cache.Installed()
	if err == nil {
		var orphans []modelcache.InstalledModel
		for _, im := range installed {
			if _, ok := modelcache.Lookup(im.ID); !ok {
				orphans = append(orphans, im)
			}
		}
		if len(orphans) > 0 {
			fmt.Println(SectionStyle.Render("Installed but not in the registry:"))
			for _, im := range orphans {
				fmt.Printf("    %-20s %s\n", im.ID, formatBytes(im.SizeBytes))
			}
		}
	}

	fmt.Println(DimStyle.Render(fmt.Sprintf("\n  * default · weights in %s", cache.Dir())))
	fmt.Println(DimStyle.Render("  Pull with: hearth models pull <id>"))
	return nil
}

// handleModelsPull downloads a model's weights into the cache.
func handleModelsPull(args Args) error {
	if args.Query == "" {
		return ErrMissingArgument("model id", "hearth models pull phi-2")
	}

	spec, ok := modelcache.Lookup(args.Query)
	if !ok {
		return NewNotFoundError("model", args.Query)
	}

	cache, err := openModelCache()
	if err != nil {
		return err
	}

	if cache.IsCached(spec) {
		fmt.Printf("%s is already installed (%s)\n", spec.ID, cache.WeightsPath(spec))
		return nil
	}

	// Ctrl+C aborts the download; partial files stay behind as .tmp and are
	// ignored by the cache.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	fmt.Printf("Pulling %s (%s, %s)\n", spec.ID, spec.Params, spec.SizeString())

	progressShown := false
	path, err := cache.Resolve(ctx, spec, func(file string, fraction float64) {
		progressShown = true
		if fraction < 0 {
			StderrPrint("\r%s ...", file)
		} else {
			StderrPrint("\r%s %3.0f%%", file, fraction*100)
		}
	})
	if progressShown {
		StderrPrint("\n")
	}
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("Download cancelled.")
			return nil
		}
		return err
	}

	if args.JSON {
		resp := NewJSONResponse("models", ModelPullData{ID: spec.ID, Path: path})
		resp.Print()
		return nil
	}

	fmt.Printf("%s Installed %s -> %s\n", SuccessStyle.Render("[OK]"), spec.ID, path)
	return nil
}

// handleModelsRemove deletes a model's weights from the cache.
func handleModelsRemove(args Args) error {
	if args.Query == "" {
		return ErrMissingArgument("model id", "hearth models rm phi-2")
	}

	// Resolve through the registry when possible so partial names work, but
	// allow raw ids so orphaned directories can be removed too.
	id := args.Query
	if spec, ok := modelcache.Lookup(id); ok {
		id = spec.ID
	}

	cache, err := openModelCache()
	if err != nil {
		return err
	}

	// Show what will be freed before asking
	details := map[string]string{"Model": id}
	if installed, err := cache.Installed(); err == nil {
		for _, im := range installed {
			if im.ID == id {
				details["Size"] = formatBytes(im.SizeBytes)
				details["Path"] = im.Path
			}
		}
	}

	confirmed, err := RequireConfirmationWithDetails(args.Confirm,
		fmt.Sprintf("remove the downloaded weights for %s", id), details, args.JSON)
	if err != nil {
		return err
	}
	if !confirmed {
		ShowCancellationMessage()
		return nil
	}

	if err := cache.Remove(id); err != nil {
		return err
	}

	if args.JSON {
		resp := NewJSONResponse("models", ModelRemoveData{ID: id, Removed: true})
		resp.Print()
		return nil
	}

	fmt.Printf("%s Removed %s\n", SuccessStyle.Render("[OK]"), id)
	return nil
}
