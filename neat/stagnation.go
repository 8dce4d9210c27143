package neat

import "log/slog"

// Stagnation tracks how long each species has gone without improving its
// champion, and optionally stops stagnant species from reproducing.
type Stagnation struct {
	MaxStagnation int
	Penalize      bool
}

// NewStagnation creates a stagnation tracker from the epoch parameters.
func NewStagnation(params *EpochParams) *Stagnation {
	return &Stagnation{
		MaxStagnation: params.MaxStagnationAllowed,
		Penalize:      params.PenalizeStagnantSpecies == 1,
	}
}

// StagnationInfo holds the result of the stagnation update for a single species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update compares each species' champion with its best fitness so far.
// Species must be sorted. Improvement resets GensStagnated, anything else
// increments it.
func (s *Stagnation) Update(species []*Species) []StagnationInfo {
	result := make([]StagnationInfo, 0, len(species))
	for _, sp := range species {
		champion := sp.Champion()
		if champion == nil {
			continue
		}
		if champion.Fitness > sp.BestFitnessEver {
			sp.BestFitnessEver = champion.Fitness
			sp.GensStagnated = 0
		} else {
			sp.GensStagnated++
		}
		result = append(result, StagnationInfo{
			SpeciesID:  sp.ID,
			Species:    sp,
			IsStagnant: sp.GensStagnated > s.MaxStagnation,
		})
	}
	return result
}

// Penalty zeroes the mean adjusted fitness of stagnant species other than
// the best one, so they receive no spawn beyond rounding. It does nothing
// unless Penalize is set.
func (s *Stagnation) Penalty(info []StagnationInfo, best *Species, logger *slog.Logger) {
	if !s.Penalize {
		return
	}
	for _, si := range info {
		if !si.IsStagnant || si.Species == best {
			continue
		}
		si.Species.MeanAdjustedFitness = 0
		logger.Info("species penalized for stagnation", "species", si.SpeciesID, "generations", si.Species.GensStagnated)
	}
}
