package nn

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/baldhumanity/neat-community/neat"
)

// ErrInputCount is returned (wrapped) when Activate receives the wrong number of inputs.
var ErrInputCount = errors.New("input count does not match the genome")

// neuronState is the runtime data of one neuron during activation.
type neuronState struct {
	Input  float64
	Output float64
}

// NeuronOutput pairs a neuron id with its output from the last activation.
type NeuronOutput struct {
	NeuronID int
	Output   float64
}

// Network is the phenotype of a genome. It is feed-forward except for
// self-loops, which feed a neuron's output from the previous activation
// back into it.
type Network struct {
	Genome     *neat.Genome
	Activation neat.ActivationFunc

	neurons      []neuronState // Indexed through index, not by genome position
	memory       []neuronState // State after the previous activation
	index        map[int]int   // Neuron id -> slot in neurons
	loops        map[int]float64
	hasActivated bool
}

// NewNetwork builds the phenotype of g with the default activation function.
func NewNetwork(g *neat.Genome) *Network {
	return NewNetworkWithActivation(g, neat.DefaultActivation)
}

// NewNetworkWithActivation builds the phenotype of g using fn for every
// hidden and output neuron. Reordering the genome's genes afterwards is
// fine; adding or removing genes needs a new network.
func NewNetworkWithActivation(g *neat.Genome, fn neat.ActivationFunc) *Network {
	net := &Network{
		Genome:     g,
		Activation: fn,
		neurons:    make([]neuronState, len(g.Neurons)),
		index:      make(map[int]int, len(g.Neurons)),
		loops:      make(map[int]float64),
	}
	for i, n := range g.Neurons {
		net.index[n.ID] = i
	}
	for _, l := range g.Links {
		if l.IsLooped() && l.Enabled {
			net.loops[l.InNeuron] = l.Weight
		}
	}
	return net
}

// Activate feeds inputs through the network and returns the outputs in
// declared order. It fails with ErrInputCount, returning no outputs, when
// len(inputs) differs from the genome's input count.
func (net *Network) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != net.Genome.InputCount {
		slog.Warn("phenotype activated with wrong number of inputs",
			"genome", net.Genome.ID, "expected", net.Genome.InputCount, "got", len(inputs))
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInputCount, net.Genome.InputCount, len(inputs))
	}

	net.prepare()

	outputs := make([]float64, 0, net.Genome.OutputCount)
	k := 0
	for step := range net.Genome.Wavefront() {
		idx, ok := net.index[step.Neuron.ID]
		if !ok {
			slog.Warn("runtime data requested for unknown neuron", "genome", net.Genome.ID, "neuron", step.Neuron.ID)
			continue
		}
		switch step.Role {
		case neat.InputStep:
			net.neurons[idx].Input = inputs[k]
			net.neurons[idx].Output = inputs[k]
			k++
			net.feedForward(idx, step.OutLinks)
		case neat.HiddenStep:
			net.activateNeuron(step.Neuron.ID, idx)
			net.feedForward(idx, step.OutLinks)
		case neat.OutputStep:
			outputs = append(outputs, net.activateNeuron(step.Neuron.ID, idx))
		}
	}

	net.hasActivated = true
	return outputs, nil
}

// prepare saves the previous state as memory and resets every neuron's
// input to its bias and its output to 0.
func (net *Network) prepare() {
	if net.hasActivated {
		if net.memory == nil {
			net.memory = make([]neuronState, len(net.neurons))
		}
		copy(net.memory, net.neurons)
	}
	for _, n := range net.Genome.Neurons {
		idx, ok := net.index[n.ID]
		if !ok {
			continue
		}
		net.neurons[idx].Input = 0
		if n.HasBias() {
			net.neurons[idx].Input = n.Bias
		}
		net.neurons[idx].Output = 0
	}
}

func (net *Network) activateNeuron(id, idx int) float64 {
	if w, ok := net.loops[id]; ok && net.hasActivated {
		net.neurons[idx].Input += w * net.memory[idx].Output
	}
	net.neurons[idx].Output = net.Activation(net.neurons[idx].Input)
	return net.neurons[idx].Output
}

func (net *Network) feedForward(src int, links []*neat.LinkGene) {
	for _, l := range links {
		dst, ok := net.index[l.OutNeuron]
		if !ok {
			continue
		}
		net.neurons[dst].Input += l.Weight * net.neurons[src].Output
	}
}

// Outputs returns the output of every neuron from the last activation, in
// genome order.
func (net *Network) Outputs() []NeuronOutput {
	out := make([]NeuronOutput, 0, len(net.neurons))
	for _, n := range net.Genome.Neurons {
		if idx, ok := net.index[n.ID]; ok {
			out = append(out, NeuronOutput{NeuronID: n.ID, Output: net.neurons[idx].Output})
		}
	}
	return out
}

// Reset clears the recurrent memory, as if the network had never been activated.
func (net *Network) Reset() {
	net.hasActivated = false
	net.memory = nil
	for i := range net.neurons {
		net.neurons[i] = neuronState{}
	}
}
