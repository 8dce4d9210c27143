package neat

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gopkg.in/ini.v1"
)

// ErrInvalidParams is returned (wrapped) when a parameter is out of its declared range.
var ErrInvalidParams = errors.New("invalid neat params")

// Params stores the configuration parameters for a NEAT community.
// Every numeric field is described by a ParamSpec with a valid range.
type Params struct {
	Universal UniversalParams
	Epoch     EpochParams
	Mutation  MutationParams
}

// UniversalParams holds run-wide parameters.
type UniversalParams struct {
	ShowLog             int    `ini:"show_log"`
	InitialGenomeCount  int    `ini:"initial_genome_count"` // Also the fixed population size
	InitialSpeciesCount int    `ini:"initial_species_count"`
	StrictInvariants    int    `ini:"strict_invariants"` // 1 turns invariant violations into panics
	Seed                int64  `ini:"seed"`              // 0 seeds from the clock
	Activation          string `ini:"activation"`
}

// EpochParams holds parameters used while producing the next generation.
type EpochParams struct {
	ProbOfMakingLinkInInitialGenome float64 `ini:"prob_of_making_link_in_initial_genome"`
	ExcessGenesCoefficient          float64 `ini:"excess_genes_coefficient"`   // c1
	DisjointGenesCoefficient        float64 `ini:"disjoint_genes_coefficient"` // c2
	WeightsCoefficient              float64 `ini:"weights_coefficient"`        // c3
	ShThreshold                     float64 `ini:"sh_threshold"`
	OffspringLinkDisableRate        float64 `ini:"offspring_link_disable_rate"`
	MinSpeciesCompatibilityDistance float64 `ini:"min_species_compatibility_distance"`
	MaxStagnationAllowed            int     `ini:"max_stagnation_allowed"`
	PenalizeStagnantSpecies         int     `ini:"penalize_stagnant_species"`
	SpeciesEliteProportion          float64 `ini:"species_elite_proportion"`
	OffspringAsexualProportion      float64 `ini:"offspring_asexual_proportion"`
	FittestParentsCutoffProportion  float64 `ini:"fittest_parents_cutoff_proportion"`
}

// MutationParams holds the structural and parametric mutation rates.
type MutationParams struct {
	MaxNumberOfHiddenNeurons                        int     `ini:"max_number_of_hidden_neurons"`
	HiddenNeuronMutationRate                        float64 `ini:"hidden_neuron_mutation_rate"`
	LinkMutationRate                                float64 `ini:"link_mutation_rate"`
	LinkMutationChanceOfConsideringLoopedRecurrency float64 `ini:"link_mutation_chance_of_considering_looped_recurrency"`
	WeightMutationRateForEachLink                   float64 `ini:"weight_mutation_rate_for_each_link"`
	WeightMutationProbNewVal                        float64 `ini:"weight_mutation_prob_new_val"`
	WeightMutationMaxPerturbation                   float64 `ini:"weight_mutation_max_perturbation"`
	WeightMutationNewValRange                       float64 `ini:"weight_mutation_new_val_range"`
	BiasMutationRateForEachNeuron                   float64 `ini:"bias_mutation_rate_for_each_neuron"`
	BiasMutationProbNewVal                          float64 `ini:"bias_mutation_prob_new_val"`
	BiasMutationMaxPerturbation                     float64 `ini:"bias_mutation_max_perturbation"`
	BiasMutationNewValRange                         float64 `ini:"bias_mutation_new_val_range"`
}

// DefaultParams returns the stock parameter set.
func DefaultParams() *Params {
	return &Params{
		Universal: UniversalParams{
			ShowLog:             1,
			InitialGenomeCount:  180,
			InitialSpeciesCount: 40,
			Activation:          "bipolar_sigmoid",
		},
		Epoch: EpochParams{
			ProbOfMakingLinkInInitialGenome: 0.25,
			ExcessGenesCoefficient:          1,
			DisjointGenesCoefficient:        1,
			WeightsCoefficient:              0.4,
			ShThreshold:                     3,
			OffspringLinkDisableRate:        0.75,
			MinSpeciesCompatibilityDistance: 0.2,
			MaxStagnationAllowed:            15,
			SpeciesEliteProportion:          0.1,
			OffspringAsexualProportion:      0.75,
			FittestParentsCutoffProportion:  0.3,
		},
		Mutation: MutationParams{
			MaxNumberOfHiddenNeurons:      40,
			HiddenNeuronMutationRate:      0.45,
			LinkMutationRate:              0.8,
			WeightMutationRateForEachLink: 0.9,
			WeightMutationProbNewVal:      0.1,
			WeightMutationMaxPerturbation: 0.5,
			WeightMutationNewValRange:     3,
			BiasMutationRateForEachNeuron: 0.2,
			BiasMutationProbNewVal:        0.07,
			BiasMutationMaxPerturbation:   0.5,
			BiasMutationNewValRange:       3,
		},
	}
}

// ParamSpec declares the valid range of a named numeric parameter.
type ParamSpec struct {
	Section string
	Key     string
	Min     float64
	Max     float64
	Whole   bool
	value   func(p *Params) float64
}

// Value reads the described parameter from p.
func (s ParamSpec) Value(p *Params) float64 {
	return s.value(p)
}

func intParam(f func(p *Params) int) func(p *Params) float64 {
	return func(p *Params) float64 { return float64(f(p)) }
}

var paramSpecs = []ParamSpec{
	{"Universal", "show_log", 0, 1, true, intParam(func(p *Params) int { return p.Universal.ShowLog })},
	{"Universal", "initial_genome_count", 1, 2000, true, intParam(func(p *Params) int { return p.Universal.InitialGenomeCount })},
	{"Universal", "initial_species_count", 1, 2000, true, intParam(func(p *Params) int { return p.Universal.InitialSpeciesCount })},
	{"Universal", "strict_invariants", 0, 1, true, intParam(func(p *Params) int { return p.Universal.StrictInvariants })},

	{"Epoch", "prob_of_making_link_in_initial_genome", 0.0001, 1, false, func(p *Params) float64 { return p.Epoch.ProbOfMakingLinkInInitialGenome }},
	{"Epoch", "excess_genes_coefficient", 0.0001, 10, false, func(p *Params) float64 { return p.Epoch.ExcessGenesCoefficient }},
	{"Epoch", "disjoint_genes_coefficient", 0.0001, 10, false, func(p *Params) float64 { return p.Epoch.DisjointGenesCoefficient }},
	{"Epoch", "weights_coefficient", 0.0001, 10, false, func(p *Params) float64 { return p.Epoch.WeightsCoefficient }},
	{"Epoch", "sh_threshold", 0.0001, 10, false, func(p *Params) float64 { return p.Epoch.ShThreshold }},
	{"Epoch", "offspring_link_disable_rate", 0, 1, false, func(p *Params) float64 { return p.Epoch.OffspringLinkDisableRate }},
	{"Epoch", "min_species_compatibility_distance", 0.0001, 3, false, func(p *Params) float64 { return p.Epoch.MinSpeciesCompatibilityDistance }},
	{"Epoch", "max_stagnation_allowed", 1, 200, true, intParam(func(p *Params) int { return p.Epoch.MaxStagnationAllowed })},
	{"Epoch", "penalize_stagnant_species", 0, 1, true, intParam(func(p *Params) int { return p.Epoch.PenalizeStagnantSpecies })},
	{"Epoch", "species_elite_proportion", 0, 1, false, func(p *Params) float64 { return p.Epoch.SpeciesEliteProportion }},
	{"Epoch", "offspring_asexual_proportion", 0, 1, false, func(p *Params) float64 { return p.Epoch.OffspringAsexualProportion }},
	{"Epoch", "fittest_parents_cutoff_proportion", 0, 1, false, func(p *Params) float64 { return p.Epoch.FittestParentsCutoffProportion }},

	{"Mutation", "max_number_of_hidden_neurons", 0, 500, true, intParam(func(p *Params) int { return p.Mutation.MaxNumberOfHiddenNeurons })},
	{"Mutation", "hidden_neuron_mutation_rate", 0, 1, false, func(p *Params) float64 { return p.Mutation.HiddenNeuronMutationRate }},
	{"Mutation", "link_mutation_rate", 0, 1, false, func(p *Params) float64 { return p.Mutation.LinkMutationRate }},
	{"Mutation", "link_mutation_chance_of_considering_looped_recurrency", 0, 1, false, func(p *Params) float64 { return p.Mutation.LinkMutationChanceOfConsideringLoopedRecurrency }},
	{"Mutation", "weight_mutation_rate_for_each_link", 0, 1, false, func(p *Params) float64 { return p.Mutation.WeightMutationRateForEachLink }},
	{"Mutation", "weight_mutation_prob_new_val", 0, 1, false, func(p *Params) float64 { return p.Mutation.WeightMutationProbNewVal }},
	{"Mutation", "weight_mutation_max_perturbation", 0, 1, false, func(p *Params) float64 { return p.Mutation.WeightMutationMaxPerturbation }},
	{"Mutation", "weight_mutation_new_val_range", 0, 10, false, func(p *Params) float64 { return p.Mutation.WeightMutationNewValRange }},
	{"Mutation", "bias_mutation_rate_for_each_neuron", 0, 1, false, func(p *Params) float64 { return p.Mutation.BiasMutationRateForEachNeuron }},
	{"Mutation", "bias_mutation_prob_new_val", 0, 1, false, func(p *Params) float64 { return p.Mutation.BiasMutationProbNewVal }},
	{"Mutation", "bias_mutation_max_perturbation", 0, 1, false, func(p *Params) float64 { return p.Mutation.BiasMutationMaxPerturbation }},
	{"Mutation", "bias_mutation_new_val_range", 0, 10, false, func(p *Params) float64 { return p.Mutation.BiasMutationNewValRange }},
}

// ParamSpecs returns the declared range of every numeric parameter.
func ParamSpecs() []ParamSpec {
	specs := make([]ParamSpec, len(paramSpecs))
	copy(specs, paramSpecs)
	return specs
}

// Validate checks every parameter against its declared range and whole-number constraint.
func (p *Params) Validate() error {
	for _, spec := range paramSpecs {
		v := spec.value(p)
		if math.IsNaN(v) || v < spec.Min || v > spec.Max {
			return fmt.Errorf("%w: [%s] %s = %v must be within [%v, %v]", ErrInvalidParams, spec.Section, spec.Key, v, spec.Min, spec.Max)
		}
		if spec.Whole && v != math.Trunc(v) {
			return fmt.Errorf("%w: [%s] %s = %v must be a whole number", ErrInvalidParams, spec.Section, spec.Key, v)
		}
	}
	if _, err := GetActivation(p.Universal.Activation); err != nil {
		return fmt.Errorf("%w: [Universal] activation: %v", ErrInvalidParams, err)
	}
	return nil
}

// LoadParams loads parameters from an INI file on top of DefaultParams.
// Keys missing from the file keep their default value.
func LoadParams(filePath string) (*Params, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load params file '%s': %w", filePath, err)
	}
	return paramsFromIni(cfg)
}

// ParseParams is LoadParams for in-memory INI data.
func ParseParams(data []byte) (*Params, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}
	return paramsFromIni(cfg)
}

func paramsFromIni(cfg *ini.File) (*Params, error) {
	params := DefaultParams()

	if err := cfg.Section("Universal").MapTo(&params.Universal); err != nil {
		return nil, fmt.Errorf("failed to map [Universal] section: %w", err)
	}
	if err := cfg.Section("Epoch").MapTo(&params.Epoch); err != nil {
		return nil, fmt.Errorf("failed to map [Epoch] section: %w", err)
	}
	if err := cfg.Section("Mutation").MapTo(&params.Mutation); err != nil {
		return nil, fmt.Errorf("failed to map [Mutation] section: %w", err)
	}

	params.Universal.Activation = cleanIniString(params.Universal.Activation)
	if params.Universal.Activation == "" {
		params.Universal.Activation = "bipolar_sigmoid"
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// SaveParams writes p to an INI file that LoadParams can read back.
func (p *Params) SaveParams(filePath string) error {
	cfg := ini.Empty()
	if err := cfg.Section("Universal").ReflectFrom(&p.Universal); err != nil {
		return fmt.Errorf("failed to reflect [Universal] section: %w", err)
	}
	if err := cfg.Section("Epoch").ReflectFrom(&p.Epoch); err != nil {
		return fmt.Errorf("failed to reflect [Epoch] section: %w", err)
	}
	if err := cfg.Section("Mutation").ReflectFrom(&p.Mutation); err != nil {
		return fmt.Errorf("failed to reflect [Mutation] section: %w", err)
	}
	if err := cfg.SaveTo(filePath); err != nil {
		return fmt.Errorf("failed to save params file '%s': %w", filePath, err)
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
