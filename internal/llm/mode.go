// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"fmt"
	"strings"
)

// =============================================================================
// GENERATION MODES
// =============================================================================

// ModeKind selects the token selection strategy.
type ModeKind int

const (
	// KindDeterministic always picks the highest-probability token.
	// Fully reproducible, no random source consumed.
	KindDeterministic ModeKind = iota

	// KindTemperature rescales logits by 1/T, converts to a distribution,
	// and samples proportionally from the caller-seeded random source.
	KindTemperature

	// KindTopP samples from the smallest token set whose cumulative
	// probability reaches P, renormalized.
	KindTopP
)

// String returns the kind name for logs and the status bar.
func (k ModeKind) String() string {
	switch k {
	case KindDeterministic:
		return "deterministic"
	case KindTemperature:
		return "temperature"
	case KindTopP:
		return "top-p"
	default:
		return "unknown"
	}
}

// Mode describes how the sampler selects the next token. The zero value is
// deterministic argmax with no repeat penalty.
type Mode struct {
	Kind        ModeKind
	Temperature float64 // used by KindTemperature and KindTopP; 0 means 1.0
	TopP        float64 // used by KindTopP
	TopK        int     // optional candidate cutoff for the sampling kinds; 0 disables

	// RepeatPenalty dampens tokens seen in the last RepeatWindow produced
	// tokens before selection: positive logits are divided by the penalty,
	// negative logits multiplied. 0 or 1 disables.
	RepeatPenalty float64
	RepeatWindow  int
}

// Deterministic returns the argmax mode.
func Deterministic() Mode {
	return Mode{Kind: KindDeterministic}
}

// WithTemperature returns a temperature sampling mode.
func WithTemperature(t float64) Mode {
	return Mode{Kind: KindTemperature, Temperature: t}
}

// WithTopP returns a nucleus sampling mode with the given cumulative
// probability cutoff and temperature.
func WithTopP(p, t float64) Mode {
	return Mode{Kind: KindTopP, TopP: p, Temperature: t}
}

// =============================================================================
// PRESETS
// =============================================================================

// DefaultMaxTokens is the per-reply token budget used when a request does not
// set one.
const DefaultMaxTokens = 2048

// Preset names selectable in config and the UI.
const (
	PresetCareful  = "careful"
	PresetCreative = "creative"
	PresetDeranged = "deranged"
)

// PresetMode returns the named generation preset. Recognized names are
// careful (argmax, mild repeat penalty), creative (top-5 at temperature 2.0),
// and deranged (top-10 at temperature 5.0 with a heavy repeat penalty).
func PresetMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PresetCareful, "":
		return Mode{
			Kind:          KindDeterministic,
			RepeatPenalty: 1.2,
			RepeatWindow:  64,
		}, nil
	case PresetCreative:
		return Mode{
			Kind:          KindTemperature,
			Temperature:   2.0,
			TopK:          5,
			RepeatPenalty: 1.2,
			RepeatWindow:  64,
		}, nil
	case PresetDeranged:
		return Mode{
			Kind:          KindTemperature,
			Temperature:   5.0,
			TopK:          10,
			RepeatPenalty: 2.0,
			RepeatWindow:  128,
		}, nil
	default:
		return Mode{}, fmt.Errorf("unknown generation preset %q", name)
	}
}

// PresetNames returns the selectable preset names in display order.
func PresetNames() []string {
	return []string{PresetCareful, PresetCreative, PresetDeranged}
}
