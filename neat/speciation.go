package neat

import (
	"log/slog"
	"math"
)

// SpeciationAlgorithm assigns genomes to species, initially and across generations.
type SpeciationAlgorithm interface {
	// Init partitions the initial genomes into speciesCount species.
	Init(f SpeciesFactory, genomes []*Genome, speciesCount int)
	// RespeciateAll re-partitions every genome after some species died out.
	RespeciateAll(genomes, offspring []*Genome)
	// IntegrateNewGenomes places offspring into the existing species.
	IntegrateNewGenomes(genomes, offspring []*Genome)
	// Species returns the current species.
	Species() []*Species
}

// UncannyValleySpeciation spreads the initial population evenly over a
// fixed number of species regardless of distance, then lets offspring drift
// into compatible species or found new ones up to that number.
type UncannyValleySpeciation struct {
	Params       *Params
	SpeciesCount int // Target species count, set by Init
	Logger       *slog.Logger

	factory SpeciesFactory
	species []*Species
}

// NewUncannyValleySpeciation creates the strategy.
func NewUncannyValleySpeciation(params *Params) *UncannyValleySpeciation {
	return &UncannyValleySpeciation{Params: params, Logger: slog.Default()}
}

// Species returns the current species.
func (u *UncannyValleySpeciation) Species() []*Species {
	return u.species
}

// Init assigns genomes round-robin to speciesCount species, ignoring
// compatibility. No more species than genomes are created.
func (u *UncannyValleySpeciation) Init(f SpeciesFactory, genomes []*Genome, speciesCount int) {
	u.factory = f
	u.SpeciesCount = speciesCount
	n := min(speciesCount, len(genomes))
	u.species = make([]*Species, 0, n)
	for i, g := range genomes {
		if i < n {
			u.species = append(u.species, f.NewSpecies(g))
			continue
		}
		sp := u.species[i%n]
		sp.Genomes = append(sp.Genomes, g)
		g.Species = sp
	}
}

// RespeciateAll drops empty species, then integrates the offspring.
func (u *UncannyValleySpeciation) RespeciateAll(genomes, offspring []*Genome) {
	kept := u.species[:0]
	for _, sp := range u.species {
		if len(sp.Genomes) > 0 {
			kept = append(kept, sp)
		}
	}
	u.species = kept
	u.IntegrateNewGenomes(genomes, offspring)
}

// IntegrateNewGenomes places each offspring, whose species starts out as its
// fittest parent's species. An offspring compatible with its parent species
// moves to the first other species whose leader is also compatible. An
// incompatible one founds a new species while the target count allows it;
// otherwise it joins the closer of its parent species and the nearest new
// species. Member lists are then rebuilt from the assignments of genomes.
func (u *UncannyValleySpeciation) IntegrateNewGenomes(genomes, offspring []*Genome) {
	cache := NewDistanceCache(u.Params)
	threshold := u.Params.Epoch.MinSpeciesCompatibilityDistance

	u.updateLeaders(genomes, cache)

	live := make(map[*Species]bool, len(u.species))
	for _, sp := range u.species {
		live[sp] = true
	}

	var pool []*Species
	for _, g := range offspring {
		parent := g.Species
		if parent == nil || !live[parent] {
			u.Logger.Warn("offspring without a live parent species", "genome", g.ID)
			u.placeOrphan(g, cache, &pool)
			continue
		}

		if cache.Distance(g, parent.Leader) < threshold {
			for _, sp := range u.species {
				if sp != parent && cache.Distance(g, sp.Leader) < threshold {
					g.Species = sp
					break
				}
			}
			continue
		}

		if len(pool)+len(u.species) < u.SpeciesCount {
			pool = append(pool, u.factory.NewSpecies(g))
			continue
		}

		closest, minDistance := nearestSpecies(g, pool, cache)
		if cache.Distance(g, parent.Leader) < minDistance || closest == nil {
			closest = parent
		}
		g.Species = closest
	}

	u.species = append(u.species, pool...)
	u.rebuildMembers(genomes)
}

// placeOrphan puts an offspring whose parent species is gone into a new
// species if allowed, else into the species with the nearest leader.
func (u *UncannyValleySpeciation) placeOrphan(g *Genome, cache *DistanceCache, pool *[]*Species) {
	if len(*pool)+len(u.species) < u.SpeciesCount {
		*pool = append(*pool, u.factory.NewSpecies(g))
		return
	}
	closest, _ := nearestSpecies(g, u.species, cache)
	if c, d := nearestSpecies(g, *pool, cache); c != nil && (closest == nil || d < cache.Distance(g, closest.Leader)) {
		closest = c
	}
	if closest == nil {
		*pool = append(*pool, u.factory.NewSpecies(g))
		return
	}
	g.Species = closest
}

func nearestSpecies(g *Genome, species []*Species, cache *DistanceCache) (*Species, float64) {
	var closest *Species
	minDistance := math.Inf(1)
	for _, sp := range species {
		if d := cache.Distance(g, sp.Leader); d < minDistance {
			closest = sp
			minDistance = d
		}
	}
	return closest, minDistance
}

// updateLeaders keeps each species' leader if it survived. Otherwise the
// species' first member is used: the nearest-genome search starts from a
// best distance of 0 and a strict comparison, so it never replaces it.
func (u *UncannyValleySpeciation) updateLeaders(genomes []*Genome, cache *DistanceCache) {
	for _, sp := range u.species {
		var newLeader *Genome
		if len(sp.Genomes) > 0 {
			newLeader = sp.Genomes[0]
		}
		newLeaderCompat := 0.0
		for _, g := range genomes {
			if g.ID == sp.Leader.ID {
				newLeader = g
				break
			}
			if g.Species == nil || g.Species == sp {
				if compat := cache.Distance(g, sp.Leader); compat < newLeaderCompat {
					newLeader = g
					newLeaderCompat = compat
				}
			}
		}
		if newLeader == nil {
			u.Logger.Error("could not find a new leader for species", "species", sp.ID, "genomes", len(genomes))
			continue
		}
		sp.Leader = newLeader
	}
}

// rebuildMembers sets every species' member list from genome assignments and
// drops species left without members.
func (u *UncannyValleySpeciation) rebuildMembers(genomes []*Genome) {
	for _, sp := range u.species {
		sp.Genomes = sp.Genomes[:0]
	}
	for _, g := range genomes {
		if g.Species == nil {
			u.Logger.Error("genome left without species", "genome", g.ID)
			continue
		}
		g.Species.Genomes = append(g.Species.Genomes, g)
	}
	kept := u.species[:0]
	for _, sp := range u.species {
		if len(sp.Genomes) == 0 {
			u.Logger.Warn("species lost all members during speciation", "species", sp.ID)
			continue
		}
		kept = append(kept, sp)
	}
	u.species = kept
}
