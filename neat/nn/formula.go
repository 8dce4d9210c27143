package nn

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/baldhumanity/neat-community/neat"
)

// MaxFormulaLength caps the length of any formula string. Appends that
// would exceed it are refused and the formula is kept as it was.
var MaxFormulaLength = (1 << 27) - 10

// formulaState is the symbolic counterpart of neuronState.
type formulaState struct {
	input  string
	output string
}

type formulaBuilder struct {
	genome  *neat.Genome
	neurons []formulaState
	index   map[int]int
	loops   map[int]float64
	mul     float64
}

// GenerateFormula returns one symbolic formula per output neuron. Inputs are
// named by names (missing names default to x0, x1, ...), weights and
// biases are rounded to digits decimals, α is the activation function and Mi
// is the previous output of the neuron at position i.
func GenerateFormula(g *neat.Genome, names []string, digits int) []string {
	fb := &formulaBuilder{
		genome:  g,
		neurons: make([]formulaState, len(g.Neurons)),
		index:   make(map[int]int, len(g.Neurons)),
		loops:   make(map[int]float64),
		mul:     math.Pow(10, float64(digits)),
	}
	for i, n := range g.Neurons {
		fb.index[n.ID] = i
		if n.HasBias() && n.Bias != 0 {
			fb.neurons[i].input = fb.number(n.Bias)
		}
	}
	for _, l := range g.Links {
		if l.IsLooped() && l.Enabled {
			fb.loops[l.InNeuron] = l.Weight
		}
	}

	var formulas []string
	k := 0
	for step := range g.Wavefront() {
		idx, ok := fb.index[step.Neuron.ID]
		if !ok {
			continue
		}
		switch step.Role {
		case neat.InputStep:
			name := fmt.Sprintf("x%d", k)
			if k < len(names) {
				name = names[k]
			}
			k++
			fb.neurons[idx].input = name
			fb.neurons[idx].output = name
			fb.feedForward(idx, step.OutLinks)
		case neat.HiddenStep:
			fb.activate(step.Neuron.ID, idx)
			fb.feedForward(idx, step.OutLinks)
		case neat.OutputStep:
			formulas = append(formulas, fb.activate(step.Neuron.ID, idx))
		}
	}
	return formulas
}

// term renders weight*operand, leaving out a unit weight.
func (fb *formulaBuilder) term(dst string, weight float64, operand string) string {
	w := fb.number(weight)
	var t string
	switch w {
	case "1":
		t = operand
	case "-1":
		t = "-" + operand
	default:
		t = w + operand
	}
	if dst != "" && !strings.HasPrefix(t, "-") {
		t = "+" + t
	}
	return t
}

func (fb *formulaBuilder) feedForward(src int, links []*neat.LinkGene) {
	for _, l := range links {
		dst, ok := fb.index[l.OutNeuron]
		if !ok {
			continue
		}
		in := fb.neurons[dst].input
		fb.neurons[dst].input = appendCapped(in, fb.term(in, l.Weight, fb.neurons[src].output))
	}
}

func (fb *formulaBuilder) activate(id, idx int) string {
	if w, ok := fb.loops[id]; ok {
		in := fb.neurons[idx].input
		fb.neurons[idx].input = appendCapped(in, fb.term(in, w, "M"+strconv.Itoa(idx)))
	}
	fb.neurons[idx].output = appendCapped(fb.neurons[idx].output, "α("+fb.neurons[idx].input+")")
	return fb.neurons[idx].output
}

func (fb *formulaBuilder) number(v float64) string {
	r := math.Round(v*fb.mul) / fb.mul
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// appendCapped appends s to dst unless that would exceed MaxFormulaLength.
func appendCapped(dst, s string) string {
	if len(dst)+len(s) <= MaxFormulaLength {
		return dst + s
	}
	slog.Warn("formula length limit reached", "length", len(dst), "append", len(s), "limit", MaxFormulaLength)
	return dst
}
