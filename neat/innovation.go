package neat

// linkKey identifies a link by its endpoints.
type linkKey struct {
	in, out int
}

// InnovationRegistry is the historical record of structural mutations for one
// community. Genomes that discover the same link receive the same *Innovation,
// and splitting the same link yields the same neuron id.
type InnovationRegistry struct {
	linkRecords   []LinkGeneMutationRecord
	neuronRecords []NeuronGeneMutationRecord
	links         map[linkKey]*Innovation
	neurons       map[linkKey]int
	nextNeuronID  int
}

// NewInnovationRegistry creates an empty registry.
func NewInnovationRegistry() *InnovationRegistry {
	return &InnovationRegistry{
		links:   make(map[linkKey]*Innovation),
		neurons: make(map[linkKey]int),
	}
}

// Reserve makes sure ids below n are never handed out by NextNeuronID.
// Input and output neurons occupy ids 0..inputs+outputs-1.
func (r *InnovationRegistry) Reserve(n int) {
	if n > r.nextNeuronID {
		r.nextNeuronID = n
	}
}

// NextNeuronID allocates a fresh neuron id.
func (r *InnovationRegistry) NextNeuronID() int {
	id := r.nextNeuronID
	r.nextNeuronID++
	return id
}

// DetermineInnovationForLink returns the innovation of the link in->out,
// allocating the next innovation number the first time the pair is seen.
func (r *InnovationRegistry) DetermineInnovationForLink(in, out int) *Innovation {
	key := linkKey{in, out}
	if inno, ok := r.links[key]; ok {
		return inno
	}
	inno := &Innovation{N: len(r.linkRecords) + 1, InNeuron: in, OutNeuron: out}
	r.links[key] = inno
	r.linkRecords = append(r.linkRecords, LinkGeneMutationRecord{InNeuron: in, OutNeuron: out, Innovation: inno})
	return inno
}

// FindNeuronIDForMutationAtLink returns the id of the neuron that previously
// split the link in->out. ok is false if the link was never split.
func (r *InnovationRegistry) FindNeuronIDForMutationAtLink(in, out int) (id int, ok bool) {
	id, ok = r.neurons[linkKey{in, out}]
	return id, ok
}

// RecordNeuronMutation records that neuron id split the link in->out.
// The first record for a link wins.
func (r *InnovationRegistry) RecordNeuronMutation(id, in, out int) {
	key := linkKey{in, out}
	if _, exists := r.neurons[key]; exists {
		return
	}
	r.neurons[key] = id
	r.neuronRecords = append(r.neuronRecords, NeuronGeneMutationRecord{NeuronID: id, InNeuron: in, OutNeuron: out})
	r.Reserve(id + 1)
}

// InnovationCount returns the number of link innovations recorded so far.
func (r *InnovationRegistry) InnovationCount() int {
	return len(r.linkRecords)
}

// LinkRecords returns the link innovations in allocation order.
func (r *InnovationRegistry) LinkRecords() []LinkGeneMutationRecord {
	return r.linkRecords
}

// NeuronRecords returns the neuron-insertion records in allocation order.
func (r *InnovationRegistry) NeuronRecords() []NeuronGeneMutationRecord {
	return r.neuronRecords
}
