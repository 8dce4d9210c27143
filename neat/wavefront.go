package neat

import (
	"iter"
	"sort"
)

// StepRole tells a wavefront consumer which layer a neuron belongs to.
type StepRole int

const (
	InputStep StepRole = iota
	HiddenStep
	OutputStep
)

// Step is one neuron visited by Genome.Wavefront.
type Step struct {
	Role     StepRole
	Neuron   *NeuronGene
	OutLinks []*LinkGene // Enabled outgoing links, self-loops excluded
}

// Wavefront walks the genome from inputs to outputs in activation order.
//
// Input neurons come first in declared order. Hidden neurons reachable from
// the inputs follow, wave by wave: a neuron joins the next wave once every
// link into it from a reachable neuron has been visited, and each wave is
// ordered by neuron position. Every output neuron comes last in declared
// order. Hidden neurons not reachable from an input are skipped.
//
// Reachability and ordering follow every non-looped link, enabled or not, so
// a hidden neuron whose in-links were all disabled still fires with its bias.
// OutLinks only ever holds enabled links.
func (g *Genome) Wavefront() iter.Seq[Step] {
	return func(yield func(Step) bool) {
		all := make(map[int][]*LinkGene, len(g.Neurons))
		enabled := make(map[int][]*LinkGene, len(g.Neurons))
		for _, l := range g.Links {
			if l.IsLooped() {
				continue
			}
			all[l.InNeuron] = append(all[l.InNeuron], l)
			if l.Enabled {
				enabled[l.InNeuron] = append(enabled[l.InNeuron], l)
			}
		}

		// Hidden neurons reachable from an input.
		reachable := make(map[int]bool)
		queue := make([]int, 0, len(g.Neurons))
		for _, n := range g.Inputs {
			queue = append(queue, n.ID)
		}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, l := range all[id] {
				dst, ok := g.neuronIndex[l.OutNeuron]
				if !ok || g.Neurons[dst].Type != HiddenNeuron || reachable[l.OutNeuron] {
					continue
				}
				reachable[l.OutNeuron] = true
				queue = append(queue, l.OutNeuron)
			}
		}

		pending := make(map[int]int, len(reachable))
		for _, l := range g.Links {
			if l.IsLooped() || !reachable[l.OutNeuron] {
				continue
			}
			if src, ok := g.neuronIndex[l.InNeuron]; ok && (g.Neurons[src].Type == InputNeuron || reachable[l.InNeuron]) {
				pending[l.OutNeuron]++
			}
		}

		var next []int
		release := func(id int) {
			for _, l := range all[id] {
				if !reachable[l.OutNeuron] {
					continue
				}
				pending[l.OutNeuron]--
				if pending[l.OutNeuron] == 0 {
					next = append(next, g.neuronIndex[l.OutNeuron])
				}
			}
		}

		for _, n := range g.Inputs {
			if !yield(Step{Role: InputStep, Neuron: n, OutLinks: enabled[n.ID]}) {
				return
			}
			release(n.ID)
		}

		for len(next) > 0 {
			wave := next
			next = nil
			sort.Ints(wave)
			for _, idx := range wave {
				n := g.Neurons[idx]
				if !yield(Step{Role: HiddenStep, Neuron: n, OutLinks: enabled[n.ID]}) {
					return
				}
				release(n.ID)
			}
		}

		for _, n := range g.Neurons {
			if n.Type != OutputNeuron {
				continue
			}
			if !yield(Step{Role: OutputStep, Neuron: n, OutLinks: enabled[n.ID]}) {
				return
			}
		}
	}
}
