package neat

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Genome represents an individual in the community.
// Neurons and links are kept in ordered slices; SortGenes restores the
// canonical order (neurons by id, links by innovation number).
type Genome struct {
	ID              int
	InputCount      int
	OutputCount     int
	Neurons         []*NeuronGene
	Inputs          []*NeuronGene // Cached subsequence of Neurons holding the input neurons
	Links           []*LinkGene
	Fitness         float64
	AdjustedFitness float64
	MaxNeuronID     int      // Highest neuron id present in this genome
	Species         *Species // Owning species, not owned by the genome

	neuronIndex map[int]int // Neuron id -> index into Neurons
}

// NewGenome creates an empty genome with the specified id and layer sizes.
func NewGenome(id, inputCount, outputCount int) *Genome {
	return &Genome{
		ID:          id,
		InputCount:  inputCount,
		OutputCount: outputCount,
		MaxNeuronID: -1,
		neuronIndex: make(map[int]int),
	}
}

// InitMinimal builds the input and output layers and links each
// (input, output) pair with probability linkProb. At least one link is
// always created.
func (g *Genome) InitMinimal(reg *InnovationRegistry, rng *rand.Rand, linkProb float64) {
	for i := 0; i < g.InputCount; i++ {
		g.AddNeuron(NewNeuronGene(i, InputNeuron, layerX(i, g.InputCount), 1))
	}
	for i := 0; i < g.OutputCount; i++ {
		g.AddNeuron(NewNeuronGene(g.InputCount+i, OutputNeuron, layerX(i, g.OutputCount), 0))
	}
	reg.Reserve(g.InputCount + g.OutputCount)

	for _, in := range g.Inputs {
		for o := 0; o < g.OutputCount; o++ {
			if rng.Float64() < linkProb {
				g.AddLink(reg, in.ID, g.InputCount+o, randomRange(rng, -1, 1), true)
			}
		}
	}
	if len(g.Links) == 0 && g.InputCount > 0 && g.OutputCount > 0 {
		in := rng.Intn(g.InputCount)
		out := g.InputCount + rng.Intn(g.OutputCount)
		g.AddLink(reg, in, out, randomRange(rng, -1, 1), true)
	}
	g.SortGenes()
}

// layerX spreads count neurons evenly over [0, 1].
func layerX(i, count int) float64 {
	return float64(i+1)/float64(count) - 0.5/float64(count)
}

// AddNeuron appends a neuron gene and indexes it.
func (g *Genome) AddNeuron(n *NeuronGene) {
	if g.neuronIndex == nil {
		g.neuronIndex = make(map[int]int)
	}
	g.neuronIndex[n.ID] = len(g.Neurons)
	g.Neurons = append(g.Neurons, n)
	if n.Type == InputNeuron {
		g.Inputs = append(g.Inputs, n)
	}
	if n.ID > g.MaxNeuronID {
		g.MaxNeuronID = n.ID
	}
}

// AddLink appends a link between two existing neurons. The innovation comes
// from reg; a nil registry creates a probe link without one.
func (g *Genome) AddLink(reg *InnovationRegistry, in, out int, weight float64, enabled bool) *LinkGene {
	link := &LinkGene{InNeuron: in, OutNeuron: out, Weight: weight, Enabled: enabled}
	if reg != nil {
		link.Innovation = reg.DetermineInnovationForLink(in, out)
	}
	g.Links = append(g.Links, link)
	return link
}

// SortGenes orders neurons by ascending id and links by ascending innovation number.
func (g *Genome) SortGenes() {
	sort.SliceStable(g.Neurons, func(i, j int) bool { return g.Neurons[i].ID < g.Neurons[j].ID })
	sort.SliceStable(g.Links, func(i, j int) bool { return g.Links[i].InnovationNumber() < g.Links[j].InnovationNumber() })
	g.reindex()
}

func (g *Genome) reindex() {
	g.neuronIndex = make(map[int]int, len(g.Neurons))
	g.Inputs = g.Inputs[:0]
	g.MaxNeuronID = -1
	for i, n := range g.Neurons {
		g.neuronIndex[n.ID] = i
		if n.Type == InputNeuron {
			g.Inputs = append(g.Inputs, n)
		}
		if n.ID > g.MaxNeuronID {
			g.MaxNeuronID = n.ID
		}
	}
}

// HasNeuronWithID reports whether a neuron with the given id exists.
func (g *Genome) HasNeuronWithID(id int) bool {
	_, ok := g.neuronIndex[id]
	return ok
}

// NeuronIndexByID returns the position of neuron id in Neurons, or -1 and
// false (with a warning) when it does not exist.
func (g *Genome) NeuronIndexByID(id int) (int, bool) {
	idx, ok := g.neuronIndex[id]
	if !ok {
		slog.Warn("neuron not found in genome", "genome", g.ID, "neuron", id)
		return -1, false
	}
	return idx, true
}

// NeuronByID returns the neuron with the given id, or nil and false (with a
// warning) when it does not exist.
func (g *Genome) NeuronByID(id int) (*NeuronGene, bool) {
	idx, ok := g.NeuronIndexByID(id)
	if !ok {
		return nil, false
	}
	return g.Neurons[idx], true
}

// HiddenCount returns the number of hidden neurons.
func (g *Genome) HiddenCount() int {
	return len(g.Neurons) - g.InputCount - g.OutputCount
}

// IsDuplicateLink reports whether a link in->out already exists, enabled or not.
func (g *Genome) IsDuplicateLink(in, out int) bool {
	for _, l := range g.Links {
		if l.InNeuron == in && l.OutNeuron == out {
			return true
		}
	}
	return false
}

// LoopedLink returns the self-loop link of a neuron, or nil.
func (g *Genome) LoopedLink(neuronID int) *LinkGene {
	for _, l := range g.Links {
		if l.InNeuron == neuronID && l.OutNeuron == neuronID {
			return l
		}
	}
	return nil
}

// NonLoopedLinksWithSource returns every link leaving neuronID that is not a self-loop.
func (g *Genome) NonLoopedLinksWithSource(neuronID int) []*LinkGene {
	var out []*LinkGene
	for _, l := range g.Links {
		if l.InNeuron == neuronID && !l.IsLooped() {
			out = append(out, l)
		}
	}
	return out
}

// HasLoop reports whether the links, ignoring self-loops, contain a directed cycle.
// Disabled links count, since crossover can bring them back enabled.
func (g *Genome) HasLoop() bool {
	dg := simple.NewDirectedGraph()
	for _, n := range g.Neurons {
		dg.AddNode(simple.Node(n.ID))
	}
	for _, l := range g.Links {
		if l.IsLooped() {
			continue
		}
		if dg.HasEdgeFromTo(int64(l.InNeuron), int64(l.OutNeuron)) {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(l.InNeuron), simple.Node(l.OutNeuron)))
	}
	_, err := topo.Sort(dg)
	return err != nil
}

// IsLinkPotentialLoop reports whether adding the link in->out would create a
// cycle. The probe link is removed again before returning.
func (g *Genome) IsLinkPotentialLoop(in, out int) bool {
	if in == out {
		return false
	}
	g.Links = append(g.Links, &LinkGene{InNeuron: in, OutNeuron: out, Enabled: true})
	loop := g.HasLoop()
	g.Links = g.Links[:len(g.Links)-1]
	return loop
}

// Clone deep-copies the genome under a new id. Innovations are shared;
// fitness, adjusted fitness, species and MaxNeuronID carry over.
func (g *Genome) Clone(id int) *Genome {
	c := NewGenome(id, g.InputCount, g.OutputCount)
	c.Neurons = make([]*NeuronGene, 0, len(g.Neurons))
	for _, n := range g.Neurons {
		c.AddNeuron(n.Copy())
	}
	c.Links = make([]*LinkGene, len(g.Links))
	for i, l := range g.Links {
		c.Links[i] = l.Copy()
	}
	c.Fitness = g.Fitness
	c.AdjustedFitness = g.AdjustedFitness
	c.Species = g.Species
	c.MaxNeuronID = g.MaxNeuronID
	return c
}

// CreateOffspring clones the genome under a new id and mutates the clone.
func (g *Genome) CreateOffspring(id int, m *GenomeMutator) *Genome {
	child := g.Clone(id)
	m.Mutate(child)
	return child
}

// CopyLinkAndNeurons copies link from parent into g together with any
// endpoint neuron g does not have yet. When maybeDisable is set the copy
// is disabled with probability disableRate.
func (g *Genome) CopyLinkAndNeurons(parent *Genome, link *LinkGene, maybeDisable bool, disableRate float64, rng *rand.Rand) *LinkGene {
	for _, id := range [2]int{link.InNeuron, link.OutNeuron} {
		if g.HasNeuronWithID(id) {
			continue
		}
		n, ok := parent.NeuronByID(id)
		if !ok {
			continue
		}
		g.AddNeuron(n.Copy())
	}
	c := link.Copy()
	if maybeDisable && rng.Float64() < disableRate {
		c.Enabled = false
	}
	g.Links = append(g.Links, c)
	return c
}

// String returns a multi-line description of the genome.
func (g *Genome) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Genome %d (Fitness: %.4f, Adjusted: %.4f)\n", g.ID, g.Fitness, g.AdjustedFitness)
	sb.WriteString("  Neurons:\n")
	for _, n := range g.Neurons {
		fmt.Fprintf(&sb, "    %s\n", n)
	}
	sb.WriteString("  Links:\n")
	for _, l := range g.Links {
		fmt.Fprintf(&sb, "    %s\n", l)
	}
	return sb.String()
}

// LogValue implements slog.LogValuer.
func (g *Genome) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("id", g.ID),
		slog.Float64("fitness", g.Fitness),
		slog.Int("neurons", len(g.Neurons)),
		slog.Int("links", len(g.Links)),
	)
}
