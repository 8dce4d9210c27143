package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// speciesOfSize builds a species of size bare genomes with preset spawn counts.
func speciesOfSize(id, size, spawn int, spawnReal float64) *Species {
	genomes := make([]*Genome, size)
	for i := range genomes {
		genomes[i] = NewGenome(id*100+i, 1, 1)
	}
	sp := NewSpecies(id, genomes[0])
	sp.Genomes = append(sp.Genomes, genomes[1:]...)
	sp.SpawnCount = spawn
	sp.SpawnCountReal = spawnReal
	return sp
}

func spawnCommunity(t *testing.T, population int, seed int64, species ...*Species) *Community {
	t.Helper()
	c := newTestCommunity(t, population, 1, seed)
	c.Species = species
	c.BestSpeciesIndex = 0
	return c
}

func spawnCounts(species []*Species) []int {
	counts := make([]int, len(species))
	for i, sp := range species {
		counts[i] = sp.SpawnCount
	}
	return counts
}

func TestReconcileCreditsOneMissingSlotToBest(t *testing.T) {
	best := speciesOfSize(1, 3, 3, 3.4)
	other := speciesOfSize(2, 3, 2, 2.6)
	c := spawnCommunity(t, 6, 1, best, other)

	total := c.reconcileSpawnCounts(best, 5)
	assert.Equal(t, 6, total)
	assert.Equal(t, []int{4, 2}, spawnCounts(c.Species))
}

func TestReconcileHandsOutMissingSlotsByRoundingLoss(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		a := speciesOfSize(1, 2, 2, 2.5)
		b := speciesOfSize(2, 2, 2, 2.5)
		exact := speciesOfSize(3, 2, 2, 2.0)
		c := spawnCommunity(t, 8, seed, a, b, exact)

		total := c.reconcileSpawnCounts(a, 6)
		require.Equal(t, 8, total, "seed %d", seed)
		require.Equal(t, []int{3, 3, 2}, spawnCounts(c.Species), "seed %d", seed)
		assert.InDelta(t, 3, a.SpawnCountReal, 1e-12)
		assert.InDelta(t, 3, b.SpawnCountReal, 1e-12)
	}
}

func TestReconcileTakesBackExcessByRoundingGain(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		a := speciesOfSize(1, 2, 3, 2.5)
		b := speciesOfSize(2, 2, 3, 2.5)
		empty := speciesOfSize(3, 1, 0, 0)
		exact := speciesOfSize(4, 2, 2, 2.0)
		c := spawnCommunity(t, 6, seed, a, b, empty, exact)

		total := c.reconcileSpawnCounts(a, 8)
		require.Equal(t, 6, total, "seed %d", seed)
		require.Equal(t, []int{2, 2, 0, 2}, spawnCounts(c.Species), "seed %d", seed)
	}
}

func TestReconcileLeavesExactTotalAlone(t *testing.T) {
	a := speciesOfSize(1, 2, 3, 2.6)
	b := speciesOfSize(2, 2, 3, 3.4)
	c := spawnCommunity(t, 6, 1, a, b)

	assert.Equal(t, 6, c.reconcileSpawnCounts(a, 6))
	assert.Equal(t, []int{3, 3}, spawnCounts(c.Species))
}

func TestBestSpeciesStealsFromExactlyOneOther(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		best := speciesOfSize(1, 4, 0, 0.4)
		b := speciesOfSize(2, 2, 3, 3.2)
		d := speciesOfSize(3, 2, 3, 2.9)
		c := spawnCommunity(t, 6, seed, best, b, d)

		c.guaranteeBestSpawn(best)
		require.Equal(t, 1, best.SpawnCount, "seed %d", seed)
		require.Equal(t, 5, b.SpawnCount+d.SpawnCount, "seed %d", seed)
		if b.SpawnCount == 2 {
			assert.InDelta(t, 2.2, b.SpawnCountReal, 1e-12)
			assert.InDelta(t, 2.9, d.SpawnCountReal, 1e-12)
		} else {
			assert.Equal(t, 2, d.SpawnCount)
			assert.InDelta(t, 1.9, d.SpawnCountReal, 1e-12)
			assert.InDelta(t, 3.2, b.SpawnCountReal, 1e-12)
		}
	}
}

func TestBestSpeciesStealSkipsBarrenSpecies(t *testing.T) {
	best := speciesOfSize(1, 4, 0, 0.2)
	barren := speciesOfSize(2, 2, 0, 0.3)
	rich := speciesOfSize(3, 2, 6, 5.5)
	c := spawnCommunity(t, 6, 3, best, barren, rich)

	c.guaranteeBestSpawn(best)
	assert.Equal(t, []int{1, 0, 5}, spawnCounts(c.Species))
	assert.InDelta(t, 0.3, barren.SpawnCountReal, 1e-12)
	assert.InDelta(t, 4.5, rich.SpawnCountReal, 1e-12)
}

func TestBestSpeciesWithSpawnKeepsOthersIntact(t *testing.T) {
	best := speciesOfSize(1, 4, 2, 2.1)
	other := speciesOfSize(2, 2, 4, 3.9)
	c := spawnCommunity(t, 6, 1, best, other)

	c.guaranteeBestSpawn(best)
	assert.Equal(t, []int{2, 4}, spawnCounts(c.Species))
}

func TestAssignEliteAndOffspring(t *testing.T) {
	best := speciesOfSize(1, 1, 2, 2)
	large := speciesOfSize(2, 10, 5, 5)
	barren := speciesOfSize(3, 3, 0, 0)
	barren.EliteSize, barren.OffspringCount = 2, 4
	c := spawnCommunity(t, 7, 5, best, large, barren)
	c.Params.Epoch.SpeciesEliteProportion = 0.2
	c.Params.Epoch.OffspringAsexualProportion = 1
	c.Params.Epoch.FittestParentsCutoffProportion = 0.3

	total := c.assignEliteAndOffspring()
	assert.Equal(t, 4, total)

	assert.Equal(t, 1, best.EliteSize)
	assert.Equal(t, 1, best.OffspringCount)
	assert.Equal(t, 1, best.AsexualReproductionCount)

	assert.Equal(t, 2, large.EliteSize)
	assert.Equal(t, 3, large.OffspringCount)
	assert.Equal(t, 3, large.AsexualReproductionCount)
	assert.Zero(t, large.SexualReproductionCount)
	assert.Equal(t, 3, large.FittestParentsCutoff)

	assert.Zero(t, barren.EliteSize)
	assert.Zero(t, barren.OffspringCount)
	assert.Zero(t, barren.AsexualReproductionCount)
	assert.Zero(t, barren.SexualReproductionCount)
	assert.Zero(t, barren.FittestParentsCutoff)
}

func TestEliteNeverExceedsSpawn(t *testing.T) {
	sp := speciesOfSize(2, 10, 1, 1)
	best := speciesOfSize(1, 2, 5, 5)
	c := spawnCommunity(t, 6, 9, best, sp)
	c.Params.Epoch.SpeciesEliteProportion = 1

	c.assignEliteAndOffspring()
	assert.Equal(t, 1, sp.EliteSize)
	assert.Zero(t, sp.OffspringCount)
	assert.Equal(t, 2, best.EliteSize)
	assert.Equal(t, 3, best.OffspringCount)
}

func TestComputeSpeciesStatsSharesByMeanAdjustedFitness(t *testing.T) {
	reg := NewInnovationRegistry()
	members := func(firstID int, fitness float64) []*Genome {
		out := make([]*Genome, 2)
		for i := range out {
			out[i] = buildGenome(t, reg, firstID+i, 2, 1, nil, [][2]int{{0, 2}, {1, 2}})
			out[i].Fitness = fitness
		}
		return out
	}
	strong, weak := members(1, 6), members(3, 2)

	a := NewSpecies(1, strong[0])
	a.Genomes = append(a.Genomes, strong[1])
	b := NewSpecies(2, weak[0])
	b.Genomes = append(b.Genomes, weak[1])

	c := spawnCommunity(t, 4, 11, a, b)
	c.Genomes = append(append([]*Genome{}, strong...), weak...)

	total := c.computeSpeciesStats(nil)

	// Identical members share fitness among themselves: 6/2 against 2/2.
	assert.InDelta(t, 3, a.MeanAdjustedFitness, 1e-12)
	assert.InDelta(t, 1, b.MeanAdjustedFitness, 1e-12)
	assert.InDelta(t, 3, a.SpawnCountReal, 1e-12)
	assert.InDelta(t, 1, b.SpawnCountReal, 1e-12)
	assert.Equal(t, []int{3, 1}, spawnCounts(c.Species))

	assert.Equal(t, 1, a.EliteSize)
	assert.Equal(t, 2, a.OffspringCount)
	assert.Equal(t, 1, b.EliteSize+b.OffspringCount)
	assert.Equal(t, a.OffspringCount+b.OffspringCount, total)
}
