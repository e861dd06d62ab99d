// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package modelcache

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// MODEL SPEC TYPE
// =============================================================================

// ModelSpec describes a downloadable model: where its weights live, how big
// they are, and how prompts must be framed for it.
type ModelSpec struct {
	// ID is the short identifier used on the command line and in config.
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Params describes the parameter count, e.g. "1.6B".
	Params string `json:"params"`

	// ContextLength is the maximum context window in tokens.
	ContextLength int `json:"context_length"`

	// WeightsURL is the direct download URL for the quantized weights.
	WeightsURL string `json:"weights_url"`

	// WeightsFile is the filename the weights are stored under in the cache.
	WeightsFile string `json:"weights_file"`

	// SizeBytes is the approximate download size, for display only.
	SizeBytes int64 `json:"size_bytes"`

	// SHA256, when non-empty, is verified after download.
	SHA256 string `json:"sha256,omitempty"`

	// Template frames the user prompt for this model. The literal
	// "{prompt}" is replaced with the user's text.
	Template string `json:"template"`

	// Description is a brief note on the model's strengths.
	Description string `json:"description"`
}

// DefaultModelID is the model used when config names none.
const DefaultModelID = "stablelm-2-zephyr"

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Registry is the set of known models. All entries are GGUF quantizations
// small enough to run on CPU-only machines.
var Registry = map[string]ModelSpec{
	"stablelm-2-zephyr": {
		ID:            "stablelm-2-zephyr",
		Name:          "StableLM 2 Zephyr",
		Params:        "1.6B",
		ContextLength: 4096,
		WeightsURL:    "https://huggingface.co/vincevas/coze-stablelm-2-1_6b/resolve/main/stablelm-2-zephyr-1_6b-Q4_1.gguf",
		WeightsFile:   "stablelm-2-zephyr-1_6b-Q4_1.gguf",
		SizeBytes:     1_073_000_000,
		Template:      "<|user|>\n{prompt}<|endoftext|>\n<|assistant|>\n",
		Description:   "Snappy all-rounder, the default",
	},
	"tinyllama-chat": {
		ID:            "tinyllama-chat",
		Name:          "TinyLlama Chat",
		Params:        "1.1B",
		ContextLength: 2048,
		WeightsURL:    "https://huggingface.co/TheBloke/TinyLlama-1.1B-Chat-v1.0-GGUF/resolve/main/tinyllama-1.1b-chat-v1.0.Q4_K_M.gguf",
		WeightsFile:   "tinyllama-1.1b-chat-v1.0.Q4_K_M.gguf",
		SizeBytes:     669_000_000,
		Template:      "<|user|>\n{prompt}</s>\n<|assistant|>\n",
		Description:   "Smallest download, fastest replies",
	},
	"phi-2": {
		ID:            "phi-2",
		Name:          "Phi-2",
		Params:        "2.7B",
		ContextLength: 2048,
		WeightsURL:    "https://huggingface.co/TheBloke/phi-2-GGUF/resolve/main/phi-2.Q4_K_M.gguf",
		WeightsFile:   "phi-2.Q4_K_M.gguf",
		SizeBytes:     1_790_000_000,
		Template:      "Instruct: {prompt}\nOutput:",
		Description:   "Strong reasoning for its size",
	},
	"qwen2-instruct": {
		ID:            "qwen2-instruct",
		Name:          "Qwen2 Instruct",
		Params:        "1.5B",
		ContextLength: 32768,
		WeightsURL:    "https://huggingface.co/Qwen/Qwen2-1.5B-Instruct-GGUF/resolve/main/qwen2-1_5b-instruct-q4_k_m.gguf",
		WeightsFile:   "qwen2-1_5b-instruct-q4_k_m.gguf",
		SizeBytes:     986_000_000,
		Template:      "<|im_start|>user\n{prompt}<|im_end|>\n<|im_start|>assistant\n",
		Description:   "Long context in a small package",
	},
	"mistral-instruct": {
		ID:            "mistral-instruct",
		Name:          "Mistral Instruct",
		Params:        "7B",
		ContextLength: 32768,
		WeightsURL:    "https://huggingface.co/TheBloke/Mistral-7B-Instruct-v0.2-GGUF/resolve/main/mistral-7b-instruct-v0.2.Q4_K_M.gguf",
		WeightsFile:   "mistral-7b-instruct-v0.2.Q4_K_M.gguf",
		SizeBytes:     4_370_000_000,
		Template:      "[INST] {prompt} [/INST]",
		Description:   "Best quality, needs ~8GB of RAM",
	},
}

// =============================================================================
// MODEL SPEC METHODS
// =============================================================================

// SizeString returns a human-readable download size.
func (m ModelSpec) SizeString() string {
	const gb = 1_000_000_000
	const mb = 1_000_000

	switch {
	case m.SizeBytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(m.SizeBytes)/gb)
	case m.SizeBytes >= mb:
		return fmt.Sprintf("%d MB", m.SizeBytes/mb)
	default:
		return fmt.Sprintf("%d B", m.SizeBytes)
	}
}

// ContextString returns a formatted context window string.
func (m ModelSpec) ContextString() string {
	if m.ContextLength >= 1000 {
		return fmt.Sprintf("%dK tokens", m.ContextLength/1024)
	}
	return fmt.Sprintf("%d tokens", m.ContextLength)
}

// ApplyTemplate frames a user prompt with the model's chat template. A spec
// without a template passes the prompt through unchanged.
func (m ModelSpec) ApplyTemplate(prompt string) string {
	if m.Template == "" {
		return prompt
	}
	return strings.ReplaceAll(m.Template, "{prompt}", prompt)
}

// =============================================================================
// REGISTRY LOOKUP
// =============================================================================

// Lookup finds a model by id, falling back to a case-insensitive partial
// match on the display name.
func Lookup(nameOrID string) (ModelSpec, bool) {
	if spec, ok := Registry[nameOrID]; ok {
		return spec, true
	}

	lower := strings.ToLower(nameOrID)
	for _, spec := range Registry {
		if strings.Contains(strings.ToLower(spec.Name), lower) {
			return spec, true
		}
	}

	return ModelSpec{}, false
}

// IDs returns all registry ids, sorted.
func IDs() []string {
	ids := make([]string, 0, len(Registry))
	for id := range Registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
