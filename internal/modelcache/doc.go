// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package modelcache downloads and stores model weights locally.
//
// Weights are cached under ~/.hearth/models, one subdirectory per model id.
// Downloads stream into a .tmp file and are renamed into place only when
// complete, so a weights file that exists is always a whole one. Interrupted
// or cancelled downloads leave nothing behind.
//
// # Key Types
//
//   - ModelSpec: A downloadable model (URL, size, chat template)
//   - Registry: The built-in set of known models
//   - Cache: The on-disk store with download-on-miss resolution
//
// # Usage
//
// Resolve weights, downloading on first use:
//
//	dir, _ := modelcache.DefaultDir()
//	cache, err := modelcache.New(dir)
//	if err != nil {
//	    return err
//	}
//	spec, ok := modelcache.Lookup("phi-2")
//	if !ok {
//	    return fmt.Errorf("unknown model")
//	}
//	path, err := cache.Resolve(ctx, spec, func(file string, frac float64) {
//	    fmt.Printf("\r%s: %.0f%%", file, frac*100)
//	})
package modelcache
