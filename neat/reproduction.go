package neat

// computeSpeciesStats computes adjusted fitness and spawn counts, reconciles
// the rounded spawn counts with the population size and derives the elite
// and offspring counts of every species. It returns the total number of
// offspring to create.
func (c *Community) computeSpeciesStats(stagnation []StagnationInfo) int {
	cache := NewDistanceCache(c.Params)
	for _, sp := range c.Species {
		if len(sp.Genomes) == 0 {
			c.Logger.Warn("found a species with no members", "species", sp.ID)
		}
		sp.ComputeAdjustedFitnesses(cache, c.Params.Epoch.ShThreshold)
	}

	best := c.Species[c.BestSpeciesIndex]
	c.stagnation.Penalty(stagnation, best, c.Logger)

	totalMeanFitness := 0.0
	for _, sp := range c.Species {
		totalMeanFitness += sp.MeanAdjustedFitness
	}

	totalSpawn := 0
	for _, sp := range c.Species {
		sp.ComputeSpawnCount(c.Rand, totalMeanFitness, len(c.Genomes), len(c.Species))
		totalSpawn += sp.SpawnCount
	}

	totalSpawn = c.reconcileSpawnCounts(best, totalSpawn)
	c.assertf(totalSpawn == c.PopulationSize,
		"total spawn count %d differs from population size %d", totalSpawn, c.PopulationSize)

	c.guaranteeBestSpawn(best)
	return c.assignEliteAndOffspring()
}

// reconcileSpawnCounts hands out or takes back the difference between the
// rounded spawn counts and the population size, and returns the new total.
func (c *Community) reconcileSpawnCounts(best *Species, totalSpawn int) int {
	delta := totalSpawn - c.PopulationSize
	switch {
	case delta == -1:
		best.SpawnCount++
		totalSpawn++
	case delta < -1:
		probs := make([]float64, len(c.Species))
		for i, sp := range c.Species {
			probs[i] = max(0, sp.SpawnCountReal-float64(sp.SpawnCount))
		}
		lottery := NewProbabilityArray(probs)
		for i := 0; i < -delta; i++ {
			idx := lottery.RandomlySelect(c.Rand)
			sp := c.Species[idx]
			sp.SpawnCount++
			sp.SpawnCountReal = float64(sp.SpawnCount)
			totalSpawn++
			if lottery.Len() > 1 {
				lottery.Remove(idx)
			}
		}
	case delta > 0:
		probs := make([]float64, len(c.Species))
		for i, sp := range c.Species {
			probs[i] = max(0, float64(sp.SpawnCount)-sp.SpawnCountReal)
		}
		lottery := NewProbabilityArray(probs)
		for remaining := delta; remaining > 0 && lottery.Len() > 0; {
			idx := lottery.RandomlySelect(c.Rand)
			sp := c.Species[idx]
			if sp.SpawnCount <= 0 {
				lottery.Remove(idx)
				continue
			}
			sp.SpawnCount--
			sp.SpawnCountReal = float64(sp.SpawnCount)
			totalSpawn--
			remaining--
			if lottery.Len() > 1 {
				lottery.Remove(idx)
			}
		}
	}
	return totalSpawn
}

// guaranteeBestSpawn makes the best species reproduce so that the best
// genome survives. The extra slot comes from one other species.
func (c *Community) guaranteeBestSpawn(best *Species) {
	if best.SpawnCount > 0 {
		return
	}
	best.SpawnCount++
	others := make([]*Species, len(c.Species))
	copy(others, c.Species)
	shuffle(c.Rand, others)
	for _, sp := range others {
		if sp != best && sp.SpawnCount > 0 {
			sp.SpawnCount--
			sp.SpawnCountReal = max(0, sp.SpawnCountReal-1)
			return
		}
	}
}

// assignEliteAndOffspring splits every species' spawn count into elite and
// offspring and returns the total offspring count.
func (c *Community) assignEliteAndOffspring() int {
	totalOffspring := 0
	for i, sp := range c.Species {
		if sp.SpawnCount <= 0 {
			sp.EliteSize = 0
			sp.OffspringCount = 0
			sp.ComputeOffspringStats(c.Rand, 0, 0)
			continue
		}

		eliteSize := min(stochasticRound(c.Rand, float64(len(sp.Genomes))*c.Params.Epoch.SpeciesEliteProportion), sp.SpawnCount)
		if i == c.BestSpeciesIndex && eliteSize <= 0 {
			eliteSize = 1
		}
		sp.EliteSize = eliteSize
		sp.OffspringCount = sp.SpawnCount - eliteSize
		totalOffspring += sp.OffspringCount

		sp.ComputeOffspringStats(c.Rand, c.Params.Epoch.OffspringAsexualProportion, c.Params.Epoch.FittestParentsCutoffProportion)
	}
	return totalOffspring
}

// createOffspring breeds every species' offspring. Asexual parents are drawn
// in proportion to fitness; sexual parents are two distinct members drawn
// from the fittest FittestParentsCutoff.
func (c *Community) createOffspring() []*Genome {
	var offspring []*Genome
	totalAsexual, totalSexual, totalElite := 0, 0, 0

	for _, sp := range c.Species {
		totalAsexual += sp.AsexualReproductionCount
		totalSexual += sp.SexualReproductionCount
		totalElite += sp.EliteSize

		if sp.OffspringCount <= 0 {
			continue
		}

		probs := make([]float64, len(sp.Genomes))
		nonZero := 0
		for i, g := range sp.Genomes {
			probs[i] = g.Fitness
			if probs[i] != 0 {
				nonZero++
			}
		}
		if nonZero == 0 {
			for i := range probs {
				probs[i] = 1
			}
		}

		if sp.AsexualReproductionCount > 0 {
			parents := NewProbabilityArray(probs)
			for i := 0; i < sp.AsexualReproductionCount; i++ {
				idx := parents.RandomlySelect(c.Rand)
				offspring = append(offspring, sp.Genomes[idx].CreateOffspring(c.newGenomeID(), c.mutator))
			}
		}

		if sp.SexualReproductionCount > 0 && sp.FittestParentsCutoff <= len(sp.Genomes) {
			fittest := probs[:sp.FittestParentsCutoff]
			for i := 0; i < sp.SexualReproductionCount; i++ {
				parents := NewProbabilityArray(fittest)
				first := parents.RandomlySelect(c.Rand)
				if parents.Len() > 1 {
					parents.Remove(first)
					second := parents.RandomlySelect(c.Rand)
					offspring = append(offspring, c.Crossover(sp.Genomes[first], sp.Genomes[second]))
				} else {
					offspring = append(offspring, sp.Genomes[first].CreateOffspring(c.newGenomeID(), c.mutator))
				}
			}
		}
	}

	c.Logger.Debug("offspring report", "asexual", totalAsexual, "sexual", totalSexual, "elite", totalElite)
	return offspring
}

// Crossover breeds mom and dad. The fitter parent (a coin flip on ties)
// passes on all of its disjoint and excess genes; matching genes come from
// either parent at random and may be disabled if either copy is disabled.
// The child belongs provisionally to the fitter parent's species.
func (c *Community) Crossover(mom, dad *Genome) *Genome {
	if mom.ID == dad.ID {
		c.Logger.Warn("crossover called with the same genome as both parents", "genome", mom.ID)
		child := mom.Clone(c.newGenomeID())
		child.Fitness = 0
		child.AdjustedFitness = 0
		return child
	}

	fittest, other := mom, dad
	if dad.Fitness > mom.Fitness || (dad.Fitness == mom.Fitness && c.Rand.Intn(2) == 1) {
		fittest, other = dad, mom
	}

	ag := AlignAlleleGenes(fittest, other)
	baby := NewGenome(c.newGenomeID(), fittest.InputCount, fittest.OutputCount)

	// Inputs and outputs are fixed by the community, so the child always has them.
	for _, n := range fittest.Neurons {
		if n.Type != HiddenNeuron {
			baby.AddNeuron(n.Copy())
		}
	}

	disableRate := c.Params.Epoch.OffspringLinkDisableRate
	for _, pair := range ag.Matching {
		maybeDisable := !pair.A.Enabled || !pair.B.Enabled
		if c.Rand.Intn(2) == 1 {
			baby.CopyLinkAndNeurons(fittest, pair.A, maybeDisable, disableRate, c.Rand)
		} else {
			baby.CopyLinkAndNeurons(other, pair.B, maybeDisable, disableRate, c.Rand)
		}
	}
	for _, l := range ag.DisjointA {
		baby.CopyLinkAndNeurons(fittest, l, false, 0, c.Rand)
	}
	for _, l := range ag.ExcessA {
		baby.CopyLinkAndNeurons(fittest, l, false, 0, c.Rand)
	}

	baby.SortGenes()
	baby.MaxNeuronID = fittest.MaxNeuronID
	baby.Species = fittest.Species
	return baby
}

// trimSpeciesBackToElite keeps only each species' elite. It reports whether
// any species was emptied.
func (c *Community) trimSpeciesBackToElite() bool {
	foundEmpty := false
	foundBest := false

	for _, sp := range c.Species {
		c.assertf(sp.EliteSize <= sp.SpawnCount && sp.EliteSize <= len(sp.Genomes),
			"species %d elite size %d exceeds spawn %d or members %d", sp.ID, sp.EliteSize, sp.SpawnCount, len(sp.Genomes))

		if sp.EliteSize <= 0 || sp.SpawnCount <= 0 {
			sp.Genomes = sp.Genomes[:0]
			foundEmpty = true
			continue
		}
		sp.Genomes = sp.Genomes[:min(sp.EliteSize, len(sp.Genomes))]
		if c.BestGenome != nil && sp.Genomes[0].ID == c.BestGenome.ID {
			foundBest = true
		}
	}

	c.assertf(foundBest, "best genome %d was not carried over as elite", c.bestGenomeID())
	return foundEmpty
}

func (c *Community) bestGenomeID() int {
	if c.BestGenome == nil {
		return 0
	}
	return c.BestGenome.ID
}
