package nn

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-community/neat"
)

// linearGenome builds inputs -> outputs with the given links and weights.
func linearGenome(inputs, outputs int, hidden []int, links [][2]int, weights []float64) *neat.Genome {
	reg := neat.NewInnovationRegistry()
	g := neat.NewGenome(1, inputs, outputs)
	for i := 0; i < inputs; i++ {
		g.AddNeuron(neat.NewNeuronGene(i, neat.InputNeuron, 0, 1))
	}
	for i := 0; i < outputs; i++ {
		g.AddNeuron(neat.NewNeuronGene(inputs+i, neat.OutputNeuron, 0, 0))
	}
	for _, h := range hidden {
		g.AddNeuron(neat.NewNeuronGene(h, neat.HiddenNeuron, 0, 0.5))
	}
	for i, l := range links {
		g.AddLink(reg, l[0], l[1], weights[i], true)
	}
	g.SortGenes()
	return g
}

func TestActivateFeedForward(t *testing.T) {
	// out = id(2*x0 + h), h = id(-1*x1 + 0.5)
	g := linearGenome(2, 1, []int{3}, [][2]int{{0, 2}, {1, 3}, {3, 2}}, []float64{2, -1, 1})
	h, ok := g.NeuronByID(3)
	require.True(t, ok)
	h.Bias = 0.5

	net := NewNetworkWithActivation(g, neat.Identity)
	out, err := net.Activate([]float64{3, 4})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 2*3+(-4+0.5), out[0], 1e-12)

	outputs := net.Outputs()
	require.Len(t, outputs, 4)
	assert.Equal(t, 3, outputs[3].NeuronID)
	assert.InDelta(t, -3.5, outputs[3].Output, 1e-12)
}

func TestActivateWrongInputCount(t *testing.T) {
	g := linearGenome(2, 1, nil, [][2]int{{0, 2}}, []float64{1})
	net := NewNetwork(g)
	out, err := net.Activate([]float64{1})
	require.ErrorIs(t, err, ErrInputCount)
	assert.Nil(t, out)
}

func TestActivateDefaultIsBipolarSigmoid(t *testing.T) {
	g := linearGenome(1, 1, nil, [][2]int{{0, 1}}, []float64{1})
	out, err := NewNetwork(g).Activate([]float64{0.7})
	require.NoError(t, err)
	assert.InDelta(t, neat.BipolarSigmoid(0.7), out[0], 1e-12)
}

func TestSelfLoopMemory(t *testing.T) {
	// h = id(x + 0.5*h_prev), out = id(h)
	g := linearGenome(1, 1, []int{2}, [][2]int{{0, 2}, {2, 2}, {2, 1}}, []float64{1, 0.5, 1})
	net := NewNetworkWithActivation(g, neat.Identity)

	out, err := net.Activate([]float64{1})
	require.NoError(t, err)
	assert.InDelta(t, 1, out[0], 1e-12)

	out, err = net.Activate([]float64{1})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, out[0], 1e-12)

	out, err = net.Activate([]float64{0})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, out[0], 1e-12)

	net.Reset()
	out, err = net.Activate([]float64{1})
	require.NoError(t, err)
	assert.InDelta(t, 1, out[0], 1e-12)
}

func TestDisabledSelfLoopIsIgnored(t *testing.T) {
	g := linearGenome(1, 1, []int{2}, [][2]int{{0, 2}, {2, 2}, {2, 1}}, []float64{1, 0.5, 1})
	g.LoopedLink(2).Enabled = false
	net := NewNetworkWithActivation(g, neat.Identity)
	for i := 0; i < 3; i++ {
		out, err := net.Activate([]float64{1})
		require.NoError(t, err)
		assert.InDelta(t, 1, out[0], 1e-12)
	}
}

func TestUnreachableOutputSeesOnlyBias(t *testing.T) {
	g := linearGenome(1, 2, nil, [][2]int{{0, 1}}, []float64{1})
	o, ok := g.NeuronByID(2)
	require.True(t, ok)
	o.Bias = 0.25

	out, err := NewNetworkWithActivation(g, neat.Identity).Activate([]float64{5})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0.25}, out)
}

func TestHiddenBehindDisabledLinkFiresBias(t *testing.T) {
	g := linearGenome(1, 1, []int{2}, [][2]int{{0, 2}, {2, 1}}, []float64{1, 1})
	for _, l := range g.Links {
		if l.InNeuron == 0 {
			l.Enabled = false
		}
	}
	h, ok := g.NeuronByID(2)
	require.True(t, ok)
	h.Bias = 1

	out, err := NewNetwork(g).Activate([]float64{3})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, neat.BipolarSigmoid(neat.BipolarSigmoid(1)), out[0], 1e-12)
}

func TestNetworkSurvivesGeneReordering(t *testing.T) {
	reg := neat.NewInnovationRegistry()
	g := neat.NewGenome(1, 2, 1)
	hidden := neat.NewNeuronGene(3, neat.HiddenNeuron, 0, 0.5)
	hidden.Bias = 0.5
	g.AddNeuron(hidden)
	g.AddNeuron(neat.NewNeuronGene(0, neat.InputNeuron, 0, 1))
	g.AddNeuron(neat.NewNeuronGene(1, neat.InputNeuron, 0, 1))
	output := neat.NewNeuronGene(2, neat.OutputNeuron, 0, 0)
	output.Bias = 0.25
	g.AddNeuron(output)
	g.AddLink(reg, 0, 2, 2, true)
	g.AddLink(reg, 1, 3, -1, true)
	g.AddLink(reg, 3, 2, 1, true)

	net := NewNetworkWithActivation(g, neat.Identity)
	g.SortGenes()

	// out = 0.25 + 2*x0 + h, h = 0.5 - x1
	out, err := net.Activate([]float64{3, 4})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 2.75, out[0], 1e-12)

	outputs := net.Outputs()
	require.Len(t, outputs, 4)
	assert.Equal(t, 3, outputs[3].NeuronID)
	assert.InDelta(t, -3.5, outputs[3].Output, 1e-12)
}

func TestSavedGenomeActivatesIdentically(t *testing.T) {
	params := neat.DefaultParams()
	reg := neat.NewInnovationRegistry()
	rng := rand.New(rand.NewSource(17))
	m := neat.NewGenomeMutator(&params.Mutation, reg, rng)
	m.Params.LinkMutationChanceOfConsideringLoopedRecurrency = 0.5

	g := neat.NewGenome(1, 3, 2)
	g.InitMinimal(reg, rng, 0.5)
	for i := 0; i < 40; i++ {
		m.Mutate(g)
	}
	g.SortGenes()

	path := filepath.Join(t.TempDir(), "genome.yaml.gz")
	require.NoError(t, neat.SaveGenome(g, path))
	loaded, err := neat.LoadGenome(path, nil)
	require.NoError(t, err)

	a, b := NewNetwork(g), NewNetwork(loaded)
	for i := 0; i < 5; i++ {
		in := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		outA, err := a.Activate(in)
		require.NoError(t, err)
		outB, err := b.Activate(in)
		require.NoError(t, err)
		assert.Equal(t, outA, outB)
		for _, v := range outA {
			assert.False(t, math.IsNaN(v))
		}
	}
}
