package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMutator(seed int64) *GenomeMutator {
	params := DefaultParams()
	reg := NewInnovationRegistry()
	return NewGenomeMutator(&params.Mutation, reg, rand.New(rand.NewSource(seed)))
}

func TestMutateKeepsGenomeAcyclic(t *testing.T) {
	m := newTestMutator(3)
	m.Params.LinkMutationChanceOfConsideringLoopedRecurrency = 0.3

	g := NewGenome(1, 3, 2)
	g.InitMinimal(m.Registry, m.Rand, 0.5)
	for i := 0; i < 300; i++ {
		m.Mutate(g)
		g.SortGenes()
		require.False(t, g.HasLoop(), "cycle after %d mutations", i+1)
	}

	assert.LessOrEqual(t, g.HiddenCount(), m.Params.MaxNumberOfHiddenNeurons)
	seen := map[[2]int]bool{}
	for _, l := range g.Links {
		key := [2]int{l.InNeuron, l.OutNeuron}
		assert.False(t, seen[key], "duplicate link %v", key)
		seen[key] = true

		dst, ok := g.NeuronByID(l.OutNeuron)
		require.True(t, ok)
		assert.NotEqual(t, InputNeuron, dst.Type)
		if !l.IsLooped() {
			src, ok := g.NeuronByID(l.InNeuron)
			require.True(t, ok)
			assert.NotEqual(t, OutputNeuron, src.Type)
		}
	}
}

func TestMutateResetsFitness(t *testing.T) {
	m := newTestMutator(4)
	g := NewGenome(1, 2, 1)
	g.InitMinimal(m.Registry, m.Rand, 1)
	g.Fitness = 3
	g.AdjustedFitness = 1.5

	m.Mutate(g)
	assert.Zero(t, g.Fitness)
	assert.Zero(t, g.AdjustedFitness)
}

func TestAddHiddenNeuronReusesRecordedID(t *testing.T) {
	m := newTestMutator(5)
	a := NewGenome(1, 1, 1)
	a.InitMinimal(m.Registry, m.Rand, 1)
	b := a.Clone(2)

	require.True(t, m.AddHiddenNeuron(a, 1))
	require.True(t, m.AddHiddenNeuron(b, 1))

	assert.Equal(t, 3, len(a.Neurons))
	assert.Equal(t, a.Neurons[2].ID, b.Neurons[2].ID, "splitting the same link yields the same neuron id")
	assert.Equal(t, 2, a.Neurons[2].ID)
	assert.Equal(t, HiddenNeuron, a.Neurons[2].Type)
	assert.Equal(t, 0.5, a.Neurons[2].SplitY)

	// Both genomes get the same three innovations.
	ag := AlignAlleleGenes(a, b)
	assert.Len(t, ag.Matching, 3)
	assert.Zero(t, ag.DisjointCount()+ag.ExcessCount())

	// The split link is disabled, the incoming link has weight 1 and the
	// outgoing one keeps the old weight.
	old := a.Links[0]
	assert.False(t, old.Enabled)
	in, out := a.Links[1], a.Links[2]
	assert.Equal(t, 1.0, in.Weight)
	assert.Equal(t, old.Weight, out.Weight)
}

func TestAddHiddenNeuronSameLinkTwice(t *testing.T) {
	m := newTestMutator(6)
	g := NewGenome(1, 1, 1)
	g.InitMinimal(m.Registry, m.Rand, 1)
	require.True(t, m.AddHiddenNeuron(g, 1))

	// Re-enable the split link and split it again in the same genome.
	g.Links[0].Enabled = true
	g.Links[1].Enabled = false
	g.Links[2].Enabled = false
	require.True(t, m.AddHiddenNeuron(g, 1))

	ids := map[int]bool{}
	for _, n := range g.Neurons {
		assert.False(t, ids[n.ID], "duplicate neuron id %d", n.ID)
		ids[n.ID] = true
	}
	assert.Equal(t, 2, g.HiddenCount())
}

func TestAddLinkRespectsRate(t *testing.T) {
	m := newTestMutator(7)
	g := NewGenome(1, 2, 1)
	g.InitMinimal(m.Registry, m.Rand, 0.0001)
	before := len(g.Links)

	assert.False(t, m.AddLink(g, 0, 0))
	assert.Len(t, g.Links, before)
	assert.True(t, m.AddLink(g, 1, 0))
	assert.Len(t, g.Links, before+1)
}

func TestAddLinkFullGenome(t *testing.T) {
	m := newTestMutator(8)
	g := NewGenome(1, 2, 1)
	g.InitMinimal(m.Registry, m.Rand, 1)
	assert.False(t, m.AddLink(g, 1, 0), "every feed-forward link already exists")
}

func TestMutateWeights(t *testing.T) {
	m := newTestMutator(9)
	g := NewGenome(1, 4, 4)
	g.InitMinimal(m.Registry, m.Rand, 1)

	m.MutateWeights(g, 1, 1, 0.5, 0.25)
	for _, l := range g.Links {
		assert.InDelta(t, 0, l.Weight, 0.25)
	}

	before := make([]float64, len(g.Links))
	for i, l := range g.Links {
		before[i] = l.Weight
	}
	m.MutateWeights(g, 0, 1, 0.5, 3)
	for i, l := range g.Links {
		assert.Equal(t, before[i], l.Weight)
	}
}

func TestMutateBiasesSkipsInputs(t *testing.T) {
	m := newTestMutator(10)
	g := NewGenome(1, 3, 2)
	g.InitMinimal(m.Registry, m.Rand, 1)

	m.MutateBiases(g, 1, 1, 0.5, 2)
	for _, n := range g.Neurons {
		if n.Type == InputNeuron {
			assert.Zero(t, n.Bias)
		} else {
			assert.InDelta(t, 0, n.Bias, 2)
		}
	}
}
