package neat

import (
	"fmt"
	"log/slog"
)

// NeuronType defines the role of a neuron in the genome.
type NeuronType int

const (
	InputNeuron NeuronType = iota
	HiddenNeuron
	OutputNeuron
)

// String returns the lower-case name used in logs and genome files.
func (t NeuronType) String() string {
	switch t {
	case InputNeuron:
		return "input"
	case HiddenNeuron:
		return "hidden"
	case OutputNeuron:
		return "output"
	default:
		return fmt.Sprintf("NeuronType(%d)", int(t))
	}
}

// ParseNeuronType is the inverse of NeuronType.String.
func ParseNeuronType(s string) (NeuronType, error) {
	switch s {
	case "input":
		return InputNeuron, nil
	case "hidden":
		return HiddenNeuron, nil
	case "output":
		return OutputNeuron, nil
	}
	return 0, fmt.Errorf("unknown neuron type %q", s)
}

// --------------------------- NeuronGene ---------------------------

// NeuronGene represents a neuron in the genome.
type NeuronGene struct {
	ID     int // Unique within the genome, allocated from the community's neuron counter
	Type   NeuronType
	SplitX float64 // Display coordinates; hidden neurons sit at the midpoint of the link they split
	SplitY float64
	Bias   float64 // Always 0 for input neurons
}

// NewNeuronGene creates a neuron gene with a zero bias.
func NewNeuronGene(id int, t NeuronType, splitX, splitY float64) *NeuronGene {
	return &NeuronGene{ID: id, Type: t, SplitX: splitX, SplitY: splitY}
}

// HasBias reports whether the neuron carries a bias (every non-input neuron does).
func (n *NeuronGene) HasBias() bool {
	return n.Type != InputNeuron
}

// Copy creates a deep copy of the NeuronGene.
func (n *NeuronGene) Copy() *NeuronGene {
	c := *n
	return &c
}

// String returns a string representation of the NeuronGene.
func (n *NeuronGene) String() string {
	return fmt.Sprintf("NeuronGene(ID: %d, Type: %s, Split: (%.3f, %.3f), Bias: %.3f)",
		n.ID, n.Type, n.SplitX, n.SplitY, n.Bias)
}

// --------------------------- LinkGene ---------------------------

// LinkGene represents a weighted connection between two neurons, addressed by id.
type LinkGene struct {
	InNeuron   int
	OutNeuron  int
	Weight     float64
	Enabled    bool        // Disabled links are kept to preserve their historical marking
	Innovation *Innovation // Shared across genomes; nil only on transient probe links
}

// IsLooped reports whether the link connects a neuron to itself.
func (l *LinkGene) IsLooped() bool {
	return l.InNeuron == l.OutNeuron
}

// InnovationNumber returns the link's innovation number, or 0 when it has none.
func (l *LinkGene) InnovationNumber() int {
	if l.Innovation == nil {
		return 0
	}
	return l.Innovation.N
}

// Copy copies the link gene. The innovation is shared, not copied.
func (l *LinkGene) Copy() *LinkGene {
	c := *l
	return &c
}

// String returns a string representation of the LinkGene.
func (l *LinkGene) String() string {
	return fmt.Sprintf("LinkGene(%d -> %d, Weight: %.3f, Enabled: %t, Innovation: %d)",
		l.InNeuron, l.OutNeuron, l.Weight, l.Enabled, l.InnovationNumber())
}

// LogValue implements slog.LogValuer.
func (l *LinkGene) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("in", l.InNeuron),
		slog.Int("out", l.OutNeuron),
		slog.Float64("weight", l.Weight),
		slog.Bool("enabled", l.Enabled),
		slog.Int("innovation", l.InnovationNumber()),
	)
}

// --------------------------- Innovation records ---------------------------

// Innovation is the historical marking of a structural link mutation.
// It is never modified after creation; N is the key used to align genes.
type Innovation struct {
	N         int
	InNeuron  int
	OutNeuron int
}

// LinkGeneMutationRecord maps a neuron-id pair to its innovation.
type LinkGeneMutationRecord struct {
	InNeuron   int
	OutNeuron  int
	Innovation *Innovation
}

// NeuronGeneMutationRecord records that the link (InNeuron, OutNeuron) was
// split by a hidden neuron with id NeuronID.
type NeuronGeneMutationRecord struct {
	NeuronID  int
	InNeuron  int
	OutNeuron int
}
