package neat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func speciesWithMembers(t *testing.T, fitnesses ...float64) *Species {
	t.Helper()
	reg := NewInnovationRegistry()
	genomes := make([]*Genome, len(fitnesses))
	for i, f := range fitnesses {
		genomes[i] = buildGenome(t, reg, i+1, 2, 1, nil, [][2]int{{0, 2}, {1, 2}})
		genomes[i].Fitness = f
	}
	sp := NewSpecies(1, genomes[0])
	sp.Genomes = append(sp.Genomes, genomes[1:]...)
	return sp
}

func TestNewSpecies(t *testing.T) {
	g := NewGenome(1, 1, 1)
	sp := NewSpecies(3, g)
	assert.Same(t, sp, g.Species)
	assert.Same(t, g, sp.Leader)
	assert.Equal(t, []*Genome{g}, sp.Genomes)
	assert.True(t, math.IsInf(sp.BestFitnessEver, -1))
}

func TestSortGenomesIsStableDescending(t *testing.T) {
	sp := speciesWithMembers(t, 1, 5, 3, 5)
	sp.SortGenomes()
	ids := []int{}
	for _, g := range sp.Genomes {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []int{2, 4, 3, 1}, ids)
	assert.Equal(t, 2, sp.Champion().ID)

	assert.Nil(t, (&Species{}).Champion())
}

func TestComputeAdjustedFitnesses(t *testing.T) {
	sp := speciesWithMembers(t, 4, 2)
	cache := NewDistanceCache(DefaultParams())

	// Identical structure and weights: both share with each other.
	sp.ComputeAdjustedFitnesses(cache, 3)
	assert.Equal(t, 2.0, sp.Genomes[0].AdjustedFitness)
	assert.Equal(t, 1.0, sp.Genomes[1].AdjustedFitness)
	assert.Equal(t, 1.5, sp.MeanAdjustedFitness)

	// A tiny threshold leaves every genome alone in its niche.
	sp.Genomes[1].Links[0].Weight = 10
	sp.ComputeAdjustedFitnesses(NewDistanceCache(DefaultParams()), 0.01)
	assert.Equal(t, 4.0, sp.Genomes[0].AdjustedFitness)
	assert.Equal(t, 2.0, sp.Genomes[1].AdjustedFitness)
}

func TestComputeSpawnCount(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sp := &Species{MeanAdjustedFitness: 2}

	sp.ComputeSpawnCount(rng, 8, 20, 4)
	assert.Equal(t, 5.0, sp.SpawnCountReal)
	assert.Equal(t, 5, sp.SpawnCount)

	sp.ComputeSpawnCount(rng, 0, 20, 3)
	assert.InDelta(t, 20.0/3, sp.SpawnCountReal, 1e-12)
	assert.Contains(t, []int{6, 7}, sp.SpawnCount)
}

func TestComputeOffspringStats(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	sp := speciesWithMembers(t, 1, 1, 1)
	sp.OffspringCount = 4
	sp.ComputeOffspringStats(rng, 0, 0)
	assert.Equal(t, 0, sp.AsexualReproductionCount)
	assert.Equal(t, 4, sp.SexualReproductionCount)
	assert.Equal(t, 2, sp.FittestParentsCutoff)

	sp.ComputeOffspringStats(rng, 1, 1)
	assert.Equal(t, 4, sp.AsexualReproductionCount)
	assert.Equal(t, 0, sp.SexualReproductionCount)
	assert.Equal(t, 3, sp.FittestParentsCutoff)

	// A single member cannot mate with itself.
	lonely := speciesWithMembers(t, 1)
	lonely.OffspringCount = 3
	lonely.ComputeOffspringStats(rng, 0, 1)
	assert.Equal(t, 3, lonely.AsexualReproductionCount)
	assert.Equal(t, 0, lonely.SexualReproductionCount)
	assert.Equal(t, 1, lonely.FittestParentsCutoff)

	lonely.OffspringCount = 0
	lonely.ComputeOffspringStats(rng, 0.5, 0.5)
	assert.Zero(t, lonely.AsexualReproductionCount+lonely.SexualReproductionCount+lonely.FittestParentsCutoff)
}

func TestStagnation(t *testing.T) {
	params := DefaultParams()
	params.Epoch.MaxStagnationAllowed = 2
	params.Epoch.PenalizeStagnantSpecies = 1
	st := NewStagnation(&params.Epoch)

	best := speciesWithMembers(t, 5)
	stale := speciesWithMembers(t, 1)
	species := []*Species{best, stale}

	var info []StagnationInfo
	for i := 0; i < 4; i++ {
		best.Genomes[0].Fitness++
		info = st.Update(species)
	}
	require.Len(t, info, 2)
	assert.False(t, info[0].IsStagnant)
	assert.Equal(t, 0, best.GensStagnated)
	assert.True(t, info[1].IsStagnant)
	assert.Equal(t, 3, stale.GensStagnated)
	assert.Equal(t, 1.0, stale.BestFitnessEver)

	best.MeanAdjustedFitness = 1
	stale.MeanAdjustedFitness = 1
	st.Penalty(info, best, discardLogger())
	assert.Equal(t, 1.0, best.MeanAdjustedFitness)
	assert.Zero(t, stale.MeanAdjustedFitness)
}
