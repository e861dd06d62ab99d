// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// =============================================================================
// SAMPLER
// =============================================================================

// minProb is the floor below which a candidate's probability is treated as
// underflowed and excluded.
const minProb = 1e-10

// Sampler selects the next token id from model logits according to a Mode.
// It owns a seeded random source so that sampling runs are reproducible for
// a fixed seed; the deterministic mode never consumes randomness.
type Sampler struct {
	mode Mode
	rng  *rand.Rand
	step int
}

// NewSampler creates a sampler for the given mode. A zero seed selects a
// time-based seed; pass a fixed seed for reproducible runs.
func NewSampler(mode Mode, seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{
		mode: mode,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Mode returns the sampler's generation mode.
func (s *Sampler) Mode() Mode { return s.mode }

// Sample picks the next token id. history holds previously produced token
// ids for the repeat penalty window; logits are penalized in place. Returns
// a SamplingError when no defined selection exists (NaN/Inf logits, or all
// probability mass underflowing during renormalization) rather than an
// undefined token.
func (s *Sampler) Sample(logits []float32, history []int) (int, error) {
	step := s.step
	s.step++

	if len(logits) == 0 {
		return 0, &SamplingError{Step: step, Reason: "empty logits"}
	}
	if !validLogits(logits) {
		return 0, &SamplingError{Step: step, Reason: "logits contain NaN or Inf"}
	}

	if s.mode.RepeatPenalty > 1.0 && len(history) > 0 {
		applyRepeatPenalty(logits, history, s.mode.RepeatPenalty, s.mode.RepeatWindow)
	}

	if s.mode.Kind == KindDeterministic {
		return argMax(logits), nil
	}

	temp := s.mode.Temperature
	if temp <= 0 {
		temp = 1.0
	}
	probs := softmax(logits, temp)

	candidates := make([]tokenProb, 0, len(probs))
	for i, p := range probs {
		if p > minProb && !math.IsNaN(p) && !math.IsInf(p, 0) {
			candidates = append(candidates, tokenProb{id: i, prob: p})
		}
	}
	if len(candidates) == 0 {
		return 0, &SamplingError{Step: step, Reason: "probability mass underflowed"}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].prob > candidates[j].prob
	})

	if s.mode.TopK > 0 && s.mode.TopK < len(candidates) {
		candidates = candidates[:s.mode.TopK]
	}

	if s.mode.Kind == KindTopP {
		var err error
		candidates, err = applyTopP(candidates, s.mode.TopP, step)
		if err != nil {
			return 0, err
		}
	}

	return s.pick(candidates), nil
}

type tokenProb struct {
	id   int
	prob float64
}

// pick draws proportionally from the candidate set.
func (s *Sampler) pick(candidates []tokenProb) int {
	sum := 0.0
	for _, c := range candidates {
		sum += c.prob
	}

	r := s.rng.Float64() * sum
	acc := 0.0
	for _, c := range candidates {
		acc += c.prob
		if r < acc {
			return c.id
		}
	}
	// Float round-off can leave r just past the last bucket.
	return candidates[len(candidates)-1].id
}

func validLogits(logits []float32) bool {
	for _, v := range logits {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// argMax returns the index of the largest logit. Callers have already
// validated the slice is non-empty and NaN-free.
func argMax(logits []float32) int {
	maxIdx := 0
	maxVal := logits[0]
	for i, v := range logits {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}
	return maxIdx
}

// softmax converts logits to probabilities at the given temperature, using
// max-subtraction for numeric stability.
func softmax(logits []float32, temp float64) []float64 {
	probs := make([]float64, len(logits))
	for i, v := range logits {
		probs[i] = float64(v) / temp
	}

	maxVal := probs[0]
	for _, v := range probs {
		if v > maxVal {
			maxVal = v
		}
	}

	sum := 0.0
	for i := range probs {
		probs[i] = math.Exp(probs[i] - maxVal)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// applyTopP keeps the smallest prefix of the sorted candidates whose
// cumulative probability reaches p, renormalized to sum to one.
func applyTopP(candidates []tokenProb, p float64, step int) ([]tokenProb, error) {
	if p <= 0.0 || p >= 1.0 {
		return candidates, nil
	}

	cum := 0.0
	cut := len(candidates)
	for i, c := range candidates {
		cum += c.prob
		if cum >= p {
			cut = i + 1
			break
		}
	}
	selected := candidates[:cut]

	total := 0.0
	for _, c := range selected {
		total += c.prob
	}
	if total <= minProb || math.IsNaN(total) {
		return nil, &SamplingError{Step: step, Reason: "top-p renormalization underflowed"}
	}
	for i := range selected {
		selected[i].prob /= total
	}
	return selected, nil
}

// applyRepeatPenalty dampens tokens seen in the trailing window of history:
// positive logits are divided by the penalty, negative ones multiplied.
func applyRepeatPenalty(logits []float32, history []int, penalty float64, window int) {
	start := 0
	if window > 0 && len(history) > window {
		start = len(history) - window
	}

	seen := make(map[int]struct{})
	for _, id := range history[start:] {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if id >= 0 && id < len(logits) {
			if logits[id] > 0 {
				logits[id] /= float32(penalty)
			} else {
				logits[id] *= float32(penalty)
			}
		}
	}
}
