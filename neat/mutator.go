package neat

import (
	"math"
	"math/rand"
)

// GenomeMutator applies structural and parametric mutations to genomes.
// New links and neurons are registered with Registry.
type GenomeMutator struct {
	Params   *MutationParams
	Registry *InnovationRegistry
	Rand     *rand.Rand
}

// NewGenomeMutator creates a mutator sharing the community's registry and random source.
func NewGenomeMutator(params *MutationParams, reg *InnovationRegistry, rng *rand.Rand) *GenomeMutator {
	return &GenomeMutator{Params: params, Registry: reg, Rand: rng}
}

// Mutate resets the genome's fitness and applies, in order, the hidden
// neuron, link, weight and bias mutations.
func (m *GenomeMutator) Mutate(g *Genome) {
	g.Fitness = 0
	g.AdjustedFitness = 0

	if g.HiddenCount() < m.Params.MaxNumberOfHiddenNeurons {
		m.AddHiddenNeuron(g, m.Params.HiddenNeuronMutationRate)
	}
	m.AddLink(g, m.Params.LinkMutationRate, m.Params.LinkMutationChanceOfConsideringLoopedRecurrency)
	m.MutateWeights(g, m.Params.WeightMutationRateForEachLink, m.Params.WeightMutationProbNewVal,
		m.Params.WeightMutationMaxPerturbation, m.Params.WeightMutationNewValRange)
	m.MutateBiases(g, m.Params.BiasMutationRateForEachNeuron, m.Params.BiasMutationProbNewVal,
		m.Params.BiasMutationMaxPerturbation, m.Params.BiasMutationNewValRange)
}

// AddHiddenNeuron splits an enabled, non-looped link with a new hidden
// neuron, with probability rate. It reports whether a neuron was added.
func (m *GenomeMutator) AddHiddenNeuron(g *Genome, rate float64) bool {
	if m.Rand.Float64() >= rate {
		return false
	}

	var candidates []*LinkGene
	for _, l := range g.Links {
		if l.Enabled && !l.IsLooped() {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return false
	}

	// Small genomes split one of the older links, which keeps insertions
	// from piling up on the newest link.
	last := len(candidates) - 1
	minimal := len(g.Links) == g.InputCount*g.OutputCount
	if !minimal && len(g.Neurons) < g.InputCount+g.OutputCount+5 {
		last = max(0, len(candidates)-int(math.Floor(math.Sqrt(float64(len(candidates)))))-1)
	}
	chosen := candidates[randomInt(m.Rand, 0, last)]

	in, ok := g.NeuronByID(chosen.InNeuron)
	if !ok {
		return false
	}
	out, ok := g.NeuronByID(chosen.OutNeuron)
	if !ok {
		return false
	}
	chosen.Enabled = false

	id, recorded := m.Registry.FindNeuronIDForMutationAtLink(chosen.InNeuron, chosen.OutNeuron)
	switch {
	case !recorded:
		id = m.Registry.NextNeuronID()
		m.Registry.RecordNeuronMutation(id, chosen.InNeuron, chosen.OutNeuron)
	case g.HasNeuronWithID(id):
		// This genome already split the link once; the copy gets its own id.
		id = m.Registry.NextNeuronID()
	}

	neuron := NewNeuronGene(id, HiddenNeuron, (in.SplitX+out.SplitX)/2, (in.SplitY+out.SplitY)/2)
	g.AddNeuron(neuron)
	g.AddLink(m.Registry, chosen.InNeuron, id, 1, true)
	g.AddLink(m.Registry, id, chosen.OutNeuron, chosen.Weight, true)
	return true
}

type linkCandidate struct {
	src, dst int
}

// AddLink adds one structurally valid link, with probability rate.
// Self-loops are considered with probability loopChance. The first valid
// candidate of a shuffled list wins. It reports whether a link was added.
func (m *GenomeMutator) AddLink(g *Genome, rate, loopChance float64) bool {
	if m.Rand.Float64() >= rate {
		return false
	}

	n := len(g.Neurons)
	candidates := make([]linkCandidate, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g.Neurons[i].ID != g.Neurons[j].ID {
				candidates = append(candidates, linkCandidate{i, j})
			}
		}
	}
	if m.Rand.Float64() < loopChance {
		for i := 0; i < n; i++ {
			candidates = append(candidates, linkCandidate{i, i})
		}
	}
	shuffle(m.Rand, candidates)

	for _, c := range candidates {
		src, dst := g.Neurons[c.src], g.Neurons[c.dst]
		if dst.Type == InputNeuron || g.IsDuplicateLink(src.ID, dst.ID) {
			continue
		}
		if c.src == c.dst {
			if g.LoopedLink(src.ID) != nil {
				continue
			}
		} else {
			if src.Type == OutputNeuron {
				continue
			}
			if g.IsLinkPotentialLoop(src.ID, dst.ID) {
				continue
			}
		}
		g.AddLink(m.Registry, src.ID, dst.ID, randomRange(m.Rand, -2, 2), true)
		return true
	}
	return false
}

// MutateWeights visits every link and, with probability rate, either
// perturbs its weight or, with probability probNew, replaces it with a
// value from [-newRange, newRange].
func (m *GenomeMutator) MutateWeights(g *Genome, rate, probNew, maxPerturbation, newRange float64) {
	for _, l := range g.Links {
		if m.Rand.Float64() >= rate {
			continue
		}
		if m.Rand.Float64() >= probNew {
			l.Weight += randomRange(m.Rand, -1, 1) * maxPerturbation * (1 - rate)
		} else {
			l.Weight = randomRange(m.Rand, -newRange, newRange)
		}
	}
}

// MutateBiases applies the MutateWeights scheme to every non-input neuron's bias.
func (m *GenomeMutator) MutateBiases(g *Genome, rate, probNew, maxPerturbation, newRange float64) {
	for _, n := range g.Neurons {
		if !n.HasBias() {
			continue
		}
		if m.Rand.Float64() >= rate {
			continue
		}
		if m.Rand.Float64() >= probNew {
			n.Bias += randomRange(m.Rand, -1, 1) * maxPerturbation * (1 - rate)
		} else {
			n.Bias = randomRange(m.Rand, -newRange, newRange)
		}
	}
}
