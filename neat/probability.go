package neat

import "math/rand"

// probabilityEpsilon is the total weight below which a ProbabilityArray
// falls back to uniform selection.
const probabilityEpsilon = 1e-6

// ProbabilityArray is a roulette wheel over a set of weighted entries.
// Entries keep the index they were created with, so removing one does not
// shift the indices returned by RandomlySelect.
type ProbabilityArray struct {
	weights []float64
	indices []int
	probs   []float64
}

// NewProbabilityArray creates a roulette wheel. Negative weights count as 0;
// if all weights sum to (almost) zero, every entry is equally likely.
func NewProbabilityArray(weights []float64) *ProbabilityArray {
	pa := &ProbabilityArray{
		weights: make([]float64, len(weights)),
		indices: make([]int, len(weights)),
	}
	for i, w := range weights {
		pa.weights[i] = max(w, 0)
		pa.indices[i] = i
	}
	pa.normalize()
	return pa
}

func (pa *ProbabilityArray) normalize() {
	total := 0.0
	for _, w := range pa.weights {
		total += w
	}
	pa.probs = make([]float64, len(pa.weights))
	for i, w := range pa.weights {
		if total <= probabilityEpsilon {
			pa.probs[i] = 1.0 / float64(len(pa.weights))
		} else {
			pa.probs[i] = w / total
		}
	}
}

// Len returns the number of entries left.
func (pa *ProbabilityArray) Len() int {
	return len(pa.indices)
}

// Probability returns the normalized probability of the entry at position i.
func (pa *ProbabilityArray) Probability(i int) float64 {
	return pa.probs[i]
}

// RandomlySelect draws an entry and returns its original index, or -1 if
// the array is empty.
func (pa *ProbabilityArray) RandomlySelect(rng *rand.Rand) int {
	if len(pa.indices) == 0 {
		return -1
	}
	threshold := rng.Float64()
	acc := 0.0
	for i, p := range pa.probs {
		acc += p
		if acc > threshold {
			return pa.indices[i]
		}
	}
	// Rounding left the accumulated sum just below the threshold.
	for i, p := range pa.probs {
		if p != 0 {
			return pa.indices[i]
		}
	}
	return pa.indices[0]
}

// Remove takes the entry with the given original index out of the wheel and
// renormalizes. It reports whether the entry was present.
func (pa *ProbabilityArray) Remove(index int) bool {
	for i, idx := range pa.indices {
		if idx != index {
			continue
		}
		pa.indices = append(pa.indices[:i], pa.indices[i+1:]...)
		pa.weights = append(pa.weights[:i], pa.weights[i+1:]...)
		pa.normalize()
		return true
	}
	return false
}
