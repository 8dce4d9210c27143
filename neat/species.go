package neat

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	ID      int
	Leader  *Genome   // Reference point for compatibility tests
	Genomes []*Genome // Fitness-descending after SortGenomes

	GensStagnated   int     // Generations without champion improvement
	BestFitnessEver float64 // Best champion fitness seen so far

	MeanAdjustedFitness      float64
	SpawnCount               int     // EliteSize + OffspringCount
	SpawnCountReal           float64 // Unrounded spawn count
	EliteSize                int     // Members kept unchanged for the next generation
	OffspringCount           int
	AsexualReproductionCount int // Offspring from a single parent
	SexualReproductionCount  int // Offspring from two distinct parents
	FittestParentsCutoff     int // Number of fittest members eligible as sexual parents
}

// SpeciesFactory creates species with community-unique ids.
type SpeciesFactory interface {
	NewSpecies(leader *Genome) *Species
}

// NewSpecies creates a species whose only member is its leader.
func NewSpecies(id int, leader *Genome) *Species {
	s := &Species{ID: id, Leader: leader, Genomes: []*Genome{leader}, BestFitnessEver: math.Inf(-1)}
	leader.Species = s
	return s
}

// Champion returns the fittest member, or nil for an empty species.
// Valid after SortGenomes.
func (s *Species) Champion() *Genome {
	if len(s.Genomes) == 0 {
		return nil
	}
	return s.Genomes[0]
}

// SortGenomes orders members by descending raw fitness. Equal fitness keeps
// the current order.
func (s *Species) SortGenomes() {
	sort.SliceStable(s.Genomes, func(i, j int) bool {
		return s.Genomes[i].Fitness > s.Genomes[j].Fitness
	})
}

// sh is the NEAT sharing function: 1 when distance <= threshold, 0 otherwise.
func sh(distance, threshold float64) float64 {
	if distance > threshold {
		return 0
	}
	return 1
}

// ComputeAdjustedFitnesses divides each member's fitness by the number of
// members within the sharing threshold (itself included) and stores the
// mean adjusted fitness.
func (s *Species) ComputeAdjustedFitnesses(cache *DistanceCache, threshold float64) {
	if len(s.Genomes) == 0 {
		s.MeanAdjustedFitness = 0
		return
	}
	mean := 0.0
	for _, mom := range s.Genomes {
		sharing := 0.0
		for _, dad := range s.Genomes {
			sharing += sh(cache.Distance(mom, dad), threshold)
		}
		if sharing <= 0 {
			slog.Warn("genome with zero sharing", "species", s.ID, "genome", mom.ID)
			mom.AdjustedFitness = 0
			continue
		}
		mom.AdjustedFitness = mom.Fitness / sharing
		mean += mom.AdjustedFitness
	}
	s.MeanAdjustedFitness = mean / float64(len(s.Genomes))
}

// ComputeSpawnCount sets the species' share of the next generation. With a
// zero total every species gets an equal share. The real count is rounded
// stochastically.
func (s *Species) ComputeSpawnCount(rng *rand.Rand, totalMeanFitness float64, genomeCount, speciesCount int) {
	if totalMeanFitness == 0 {
		s.SpawnCountReal = float64(genomeCount) / float64(speciesCount)
	} else {
		s.SpawnCountReal = s.MeanAdjustedFitness / totalMeanFitness * float64(genomeCount)
	}
	s.SpawnCount = stochasticRound(rng, s.SpawnCountReal)
}

// ComputeOffspringStats splits OffspringCount into asexual and sexual
// reproduction and sets the fittest-parents cutoff. Sexual reproduction
// needs two distinct parents, so a cutoff of one folds it into asexual.
func (s *Species) ComputeOffspringStats(rng *rand.Rand, asexualProportion, cutoffProportion float64) {
	if s.OffspringCount <= 0 {
		s.AsexualReproductionCount = 0
		s.SexualReproductionCount = 0
		s.FittestParentsCutoff = 0
		return
	}

	s.AsexualReproductionCount = stochasticRound(rng, float64(s.OffspringCount)*asexualProportion)
	s.SexualReproductionCount = s.OffspringCount - s.AsexualReproductionCount

	cutoff := stochasticRound(rng, float64(len(s.Genomes))*cutoffProportion)
	s.FittestParentsCutoff = min(max(2, cutoff), len(s.Genomes))

	if s.FittestParentsCutoff == 1 {
		s.AsexualReproductionCount += s.SexualReproductionCount
		s.SexualReproductionCount = 0
	}
}

// LogValue implements slog.LogValuer.
func (s *Species) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("id", s.ID),
		slog.Int("members", len(s.Genomes)),
		slog.Float64("mean_adjusted_fitness", s.MeanAdjustedFitness),
		slog.Int("spawn", s.SpawnCount),
		slog.Int("elite", s.EliteSize),
		slog.Int("stagnated", s.GensStagnated),
	)
}
