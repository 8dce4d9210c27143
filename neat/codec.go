package neat

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidGenome is returned (wrapped) when a decoded genome is inconsistent.
var ErrInvalidGenome = errors.New("invalid genome")

type neuronDoc struct {
	ID     int     `yaml:"id"`
	Type   string  `yaml:"type"`
	SplitX float64 `yaml:"split_x"`
	SplitY float64 `yaml:"split_y"`
	Bias   float64 `yaml:"bias,omitempty"`
}

type linkDoc struct {
	In         int     `yaml:"in"`
	Out        int     `yaml:"out"`
	Weight     float64 `yaml:"weight"`
	Enabled    bool    `yaml:"enabled"`
	Innovation int     `yaml:"innovation"`
}

type genomeDoc struct {
	ID              int         `yaml:"id"`
	InputCount      int         `yaml:"input_count"`
	OutputCount     int         `yaml:"output_count"`
	Fitness         float64     `yaml:"fitness"`
	AdjustedFitness float64     `yaml:"adjusted_fitness"`
	MaxNeuronID     int         `yaml:"max_neuron_id"`
	Neurons         []neuronDoc `yaml:"neurons"`
	Links           []linkDoc   `yaml:"links"`
}

// MarshalGenome encodes a genome as YAML.
func MarshalGenome(g *Genome) ([]byte, error) {
	doc := genomeDoc{
		ID:              g.ID,
		InputCount:      g.InputCount,
		OutputCount:     g.OutputCount,
		Fitness:         g.Fitness,
		AdjustedFitness: g.AdjustedFitness,
		MaxNeuronID:     g.MaxNeuronID,
		Neurons:         make([]neuronDoc, len(g.Neurons)),
		Links:           make([]linkDoc, len(g.Links)),
	}
	for i, n := range g.Neurons {
		doc.Neurons[i] = neuronDoc{ID: n.ID, Type: n.Type.String(), SplitX: n.SplitX, SplitY: n.SplitY, Bias: n.Bias}
	}
	for i, l := range g.Links {
		doc.Links[i] = linkDoc{In: l.InNeuron, Out: l.OutNeuron, Weight: l.Weight, Enabled: l.Enabled, Innovation: l.InnovationNumber()}
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode genome %d: %w", g.ID, err)
	}
	return data, nil
}

// UnmarshalGenome decodes a genome written by MarshalGenome.
//
// With a registry, links are attached to the registry's innovations for
// their endpoints and hidden neuron ids are reserved, so the genome can join
// that community. Without one, each link gets a standalone innovation
// carrying the number stored in the file.
func UnmarshalGenome(data []byte, reg *InnovationRegistry) (*Genome, error) {
	var doc genomeDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode genome: %w", err)
	}

	g := NewGenome(doc.ID, doc.InputCount, doc.OutputCount)
	g.Fitness = doc.Fitness
	g.AdjustedFitness = doc.AdjustedFitness

	outputs := 0
	for _, nd := range doc.Neurons {
		t, err := ParseNeuronType(nd.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: genome %d: %v", ErrInvalidGenome, doc.ID, err)
		}
		if g.HasNeuronWithID(nd.ID) {
			return nil, fmt.Errorf("%w: genome %d: duplicate neuron id %d", ErrInvalidGenome, doc.ID, nd.ID)
		}
		n := NewNeuronGene(nd.ID, t, nd.SplitX, nd.SplitY)
		if n.HasBias() {
			n.Bias = nd.Bias
		}
		if t == OutputNeuron {
			outputs++
		}
		g.AddNeuron(n)
	}
	if len(g.Inputs) != doc.InputCount {
		return nil, fmt.Errorf("%w: genome %d declares %d inputs but has %d input neurons",
			ErrInvalidGenome, doc.ID, doc.InputCount, len(g.Inputs))
	}
	if outputs != doc.OutputCount {
		return nil, fmt.Errorf("%w: genome %d declares %d outputs but has %d output neurons",
			ErrInvalidGenome, doc.ID, doc.OutputCount, outputs)
	}

	for _, ld := range doc.Links {
		if !g.HasNeuronWithID(ld.In) || !g.HasNeuronWithID(ld.Out) {
			return nil, fmt.Errorf("%w: genome %d: link %d -> %d references a missing neuron",
				ErrInvalidGenome, doc.ID, ld.In, ld.Out)
		}
		l := &LinkGene{InNeuron: ld.In, OutNeuron: ld.Out, Weight: ld.Weight, Enabled: ld.Enabled}
		if reg != nil {
			l.Innovation = reg.DetermineInnovationForLink(ld.In, ld.Out)
		} else if ld.Innovation > 0 {
			l.Innovation = &Innovation{N: ld.Innovation, InNeuron: ld.In, OutNeuron: ld.Out}
		}
		g.Links = append(g.Links, l)
	}
	if g.HasLoop() {
		return nil, fmt.Errorf("%w: genome %d contains a cycle", ErrInvalidGenome, doc.ID)
	}

	g.SortGenes()
	g.MaxNeuronID = max(g.MaxNeuronID, doc.MaxNeuronID)
	if reg != nil {
		reg.Reserve(g.MaxNeuronID + 1)
	}
	return g, nil
}
