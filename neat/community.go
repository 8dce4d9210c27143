package neat

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"
)

// ErrNotInitialized is returned by Epoch when Init has not been called.
var ErrNotInitialized = errors.New("community has no genomes; call Init first")

// FitnessFunc is the type for the function provided by the user to evaluate genome fitness.
// It should set the Fitness field of every genome.
type FitnessFunc func(genomes []*Genome) error

// Community holds the state of one NEAT run: the population, its species
// and the innovation history they share.
type Community struct {
	Params         *Params
	InputCount     int
	OutputCount    int
	PopulationSize int // Fixed for the run
	Speciation     SpeciationAlgorithm

	Genomes []*Genome  // Always the concatenation of the species' members after speciation
	Species []*Species // Current species, as reported by Speciation

	BestGenome       *Genome
	BestSpeciesIndex int
	BestFitnesses    []float64 // Best fitness of every generation
	MeanFitnesses    []float64 // Mean fitness of every generation

	Logger *slog.Logger
	Rand   *rand.Rand

	registry    *InnovationRegistry
	mutator     *GenomeMutator
	stagnation  *Stagnation
	stats       []GenerationStats
	maxGenomeID int
	maxSpecies  int
	generation  int
}

// NewCommunity creates a community for networks with the given number of
// inputs and outputs. A nil params uses DefaultParams; a nil speciation uses
// UncannyValleySpeciation.
func NewCommunity(params *Params, inputCount, outputCount int, speciation SpeciationAlgorithm) (*Community, error) {
	if params == nil {
		params = DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create community: %w", err)
	}
	if inputCount <= 0 || outputCount <= 0 {
		return nil, fmt.Errorf("failed to create community: %w: input and output counts must be positive (got %d, %d)",
			ErrInvalidParams, inputCount, outputCount)
	}

	seed := params.Universal.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger := slog.Default()
	if params.Universal.ShowLog == 0 {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	if speciation == nil {
		speciation = NewUncannyValleySpeciation(params)
	}
	if uv, ok := speciation.(*UncannyValleySpeciation); ok {
		uv.Logger = logger
	}

	c := &Community{
		Params:         params,
		InputCount:     inputCount,
		OutputCount:    outputCount,
		PopulationSize: params.Universal.InitialGenomeCount,
		Speciation:     speciation,
		Logger:         logger,
		Rand:           rand.New(rand.NewSource(seed)),
		registry:       NewInnovationRegistry(),
		stagnation:     NewStagnation(&params.Epoch),
	}
	c.registry.Reserve(inputCount + outputCount)
	c.mutator = NewGenomeMutator(&params.Mutation, c.registry, c.Rand)
	return c, nil
}

// Init creates PopulationSize minimal genomes and speciates them.
func (c *Community) Init() {
	genomes := make([]*Genome, 0, c.PopulationSize)
	for i := 0; i < c.PopulationSize; i++ {
		g := NewGenome(c.newGenomeID(), c.InputCount, c.OutputCount)
		g.InitMinimal(c.registry, c.Rand, c.Params.Epoch.ProbOfMakingLinkInInitialGenome)
		genomes = append(genomes, g)
	}

	c.Speciation.Init(c, genomes, c.Params.Universal.InitialSpeciesCount)
	c.Species = c.Speciation.Species()
	c.updateGenomesArray()
	c.assertNoEmptySpecies()

	c.Logger.Info("community initialized",
		"genomes", len(c.Genomes), "species", len(c.Species), "innovations", c.registry.InnovationCount())
}

// NewSpecies creates a species with the next species id. It implements SpeciesFactory.
func (c *Community) NewSpecies(leader *Genome) *Species {
	c.maxSpecies++
	return NewSpecies(c.maxSpecies, leader)
}

func (c *Community) newGenomeID() int {
	c.maxGenomeID++
	return c.maxGenomeID
}

// GenerationCount returns the number of epochs run so far.
func (c *Community) GenerationCount() int {
	return c.generation
}

// Registry returns the community's innovation registry.
func (c *Community) Registry() *InnovationRegistry {
	return c.registry
}

// Mutator returns the mutator used for asexual offspring.
func (c *Community) Mutator() *GenomeMutator {
	return c.mutator
}

// Stats returns the statistics recorded for every generation so far.
func (c *Community) Stats() []GenerationStats {
	return c.stats
}

// RunGeneration evaluates every genome with eval and then runs Epoch.
func (c *Community) RunGeneration(eval FitnessFunc) error {
	if err := eval(c.Genomes); err != nil {
		return fmt.Errorf("fitness evaluation failed in generation %d: %w", c.generation+1, err)
	}
	return c.Epoch()
}

// Epoch produces the next generation from the evaluated current one.
// Every genome's Fitness must be set before calling it.
func (c *Community) Epoch() error {
	if len(c.Genomes) == 0 || len(c.Species) == 0 {
		return ErrNotInitialized
	}
	start := time.Now()
	c.generation++
	c.Logger.Debug("epoch start", "generation", c.generation)

	c.sortEachSpecies()
	c.updateBestGenome()
	c.updateStats()
	stagnation := c.stagnation.Update(c.Species)

	totalOffspring := c.computeSpeciesStats(stagnation)
	offspring := c.createOffspring()
	c.assertf(totalOffspring == len(offspring),
		"created %d offspring, expected %d", len(offspring), totalOffspring)

	emptySpecies := c.trimSpeciesBackToElite()
	c.updateGenomesArray()
	c.Genomes = append(c.Genomes, offspring...)

	if emptySpecies {
		c.Speciation.RespeciateAll(c.Genomes, offspring)
	} else {
		c.Speciation.IntegrateNewGenomes(c.Genomes, offspring)
	}
	c.Species = c.Speciation.Species()
	c.updateGenomesArray()
	c.assertNoEmptySpecies()

	c.sortEachSpecies()
	c.updateBestGenome()
	c.assertf(len(c.Genomes) == c.PopulationSize,
		"genome count %d differs from population size %d after epoch", len(c.Genomes), c.PopulationSize)

	last := c.stats[len(c.stats)-1]
	c.Logger.Info("epoch finished",
		"generation", c.generation,
		"best_fitness", last.BestFitness,
		"mean_fitness", last.MeanFitness,
		"species", len(c.Species),
		"innovations", c.registry.InnovationCount(),
		"elapsed", time.Since(start))
	return nil
}

func (c *Community) sortEachSpecies() {
	for _, sp := range c.Species {
		sp.SortGenomes()
	}
}

// updateBestGenome picks the best species champion. Ties keep the species
// found first.
func (c *Community) updateBestGenome() {
	if c.generation <= 0 {
		c.Logger.Warn("best genome update requested before the first epoch")
		return
	}
	for len(c.BestFitnesses) < c.generation {
		c.BestFitnesses = append(c.BestFitnesses, math.Inf(-1))
	}

	c.BestGenome = nil
	best := math.Inf(-1)
	for i, sp := range c.Species {
		champion := sp.Champion()
		if champion == nil {
			continue
		}
		if champion.Fitness > best || c.BestGenome == nil {
			best = champion.Fitness
			c.BestGenome = champion
			c.BestSpeciesIndex = i
		}
	}
	c.BestFitnesses[c.generation-1] = best
}

// updateStats records the mean fitness and the statistics row of the
// generation being evaluated.
func (c *Community) updateStats() {
	fitnesses := make([]float64, len(c.Genomes))
	neurons := make([]float64, len(c.Genomes))
	links := make([]float64, len(c.Genomes))
	for i, g := range c.Genomes {
		fitnesses[i] = g.Fitness
		neurons[i] = float64(len(g.Neurons))
		links[i] = float64(len(g.Links))
	}
	mean := Mean(fitnesses)
	for len(c.MeanFitnesses) < c.generation {
		c.MeanFitnesses = append(c.MeanFitnesses, 0)
	}
	c.MeanFitnesses[c.generation-1] = mean

	row := GenerationStats{
		Generation:      c.generation,
		BestFitness:     c.BestFitnesses[c.generation-1],
		MeanFitness:     mean,
		StdevFitness:    Stdev(fitnesses),
		SpeciesCount:    len(c.Species),
		MeanNeurons:     Mean(neurons),
		MeanLinks:       Mean(links),
		InnovationCount: c.registry.InnovationCount(),
	}
	if c.BestGenome != nil {
		row.BestGenomeID = c.BestGenome.ID
	}
	c.stats = append(c.stats, row)
}

// updateGenomesArray rebuilds Genomes from the species' members.
func (c *Community) updateGenomesArray() {
	genomes := make([]*Genome, 0, c.PopulationSize)
	for _, sp := range c.Species {
		genomes = append(genomes, sp.Genomes...)
	}
	c.Genomes = genomes
}

func (c *Community) assertNoEmptySpecies() {
	for _, sp := range c.Species {
		if len(sp.Genomes) == 0 {
			c.assertf(false, "species %d is empty after speciation", sp.ID)
			return
		}
	}
}

// assertf reports a broken invariant. It logs at error level and panics
// when StrictInvariants is set.
func (c *Community) assertf(cond bool, format string, args ...any) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	c.Logger.Error("invariant violated", "generation", c.generation, "detail", msg)
	if c.Params.Universal.StrictInvariants == 1 {
		panic("neat: " + msg)
	}
}
