package neat

// NeuronDrawData describes a neuron for rendering.
type NeuronDrawData struct {
	ID     int
	Type   NeuronType
	SplitX float64
	SplitY float64
}

// LinkDrawData describes a link for rendering by neuron positions.
type LinkDrawData struct {
	SourceIndex int
	DestIndex   int
	Enabled     bool
}

// DrawData is everything a renderer needs to draw a genome.
type DrawData struct {
	Neurons []NeuronDrawData
	Links   []LinkDrawData
}

// DrawData exports the genome's neurons and links. Link endpoints are
// indices into DrawData.Neurons; links with a missing endpoint are skipped.
func (g *Genome) DrawData() DrawData {
	dd := DrawData{
		Neurons: make([]NeuronDrawData, len(g.Neurons)),
		Links:   make([]LinkDrawData, 0, len(g.Links)),
	}
	for i, n := range g.Neurons {
		dd.Neurons[i] = NeuronDrawData{ID: n.ID, Type: n.Type, SplitX: n.SplitX, SplitY: n.SplitY}
	}
	for _, l := range g.Links {
		src, ok := g.NeuronIndexByID(l.InNeuron)
		if !ok {
			continue
		}
		dst, ok := g.NeuronIndexByID(l.OutNeuron)
		if !ok {
			continue
		}
		dd.Links = append(dd.Links, LinkDrawData{SourceIndex: src, DestIndex: dst, Enabled: l.Enabled})
	}
	return dd
}
