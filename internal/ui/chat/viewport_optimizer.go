// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// =============================================================================
// VIEWPORT OPTIMIZER
// =============================================================================

// ViewportOptimizer skips redundant viewport re-renders by comparing content
// hashes. During streaming the poll tick fires ~30 times a second whether or
// not new fragments arrived, so most ticks would otherwise re-set identical
// viewport content.
type ViewportOptimizer struct {
	mu              sync.RWMutex
	lastContentHash string
	dirty           bool

	// Stats
	updateCount uint64
	skipCount   uint64
}

// NewViewportOptimizer creates a viewport optimizer.
func NewViewportOptimizer() *ViewportOptimizer {
	return &ViewportOptimizer{
		dirty: true, // First render always proceeds
	}
}

// ShouldUpdate reports whether the viewport content actually changed since
// the last accepted update. The first call always returns true.
func (vo *ViewportOptimizer) ShouldUpdate(newContent string) bool {
	vo.mu.Lock()
	defer vo.mu.Unlock()

	vo.updateCount++

	// First update always proceeds
	if vo.updateCount == 1 {
		vo.lastContentHash = hashContent(newContent)
		vo.dirty = true
		return true
	}

	newHash := hashContent(newContent)
	if newHash == vo.lastContentHash {
		vo.skipCount++
		return false
	}

	vo.lastContentHash = newHash
	vo.dirty = true
	return true
}

// MarkClean marks the viewport as rendered.
func (vo *ViewportOptimizer) MarkClean() {
	vo.mu.Lock()
	defer vo.mu.Unlock()
	vo.dirty = false
}

// IsDirty reports whether the viewport has unrendered changes.
func (vo *ViewportOptimizer) IsDirty() bool {
	vo.mu.RLock()
	defer vo.mu.RUnlock()
	return vo.dirty
}

// ForceUpdate invalidates the cached hash so the next ShouldUpdate proceeds
// even with identical content. Used after resizes, where the same transcript
// re-wraps to different lines.
func (vo *ViewportOptimizer) ForceUpdate() {
	vo.mu.Lock()
	defer vo.mu.Unlock()
	vo.lastContentHash = ""
	vo.dirty = true
}

// Reset clears the cached hash when the transcript is replaced wholesale
// (clear, new conversation). Counters survive so /stats reflects the whole
// session.
func (vo *ViewportOptimizer) Reset() {
	vo.mu.Lock()
	defer vo.mu.Unlock()
	vo.lastContentHash = ""
	vo.dirty = true
}

// GetStats returns total update requests, skipped updates, and the skip rate
// as a percentage.
func (vo *ViewportOptimizer) GetStats() (total, skipped uint64, efficiency float64) {
	vo.mu.RLock()
	defer vo.mu.RUnlock()

	total = vo.updateCount
	skipped = vo.skipCount
	if total > 0 {
		efficiency = float64(skipped) / float64(total) * 100.0
	}
	return total, skipped, efficiency
}

// hashContent computes a SHA-256 hash of content for change detection.
func hashContent(content string) string {
	if content == "" {
		return ""
	}
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}
