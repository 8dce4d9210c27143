package neat

import (
	"log/slog"
	"math"
)

// CompatibilityDistance measures how far apart two genomes are:
//
//	c1/N*excess + c2/N*disjoint + c3*W
//
// N is the larger link count and W the mean absolute weight difference of
// matching genes (disabled ones included). A genome is at distance 0 from
// itself. Two genomes without any links have no defined distance; this is
// logged and +Inf is returned.
func (g *Genome) CompatibilityDistance(other *Genome, params *Params) float64 {
	if g.ID == other.ID {
		return 0
	}

	ag := AlignAlleleGenes(g, other)

	n := float64(max(len(g.Links), len(other.Links)))
	if n == 0 {
		slog.Warn("compatibility distance between genomes without links", "a", g.ID, "b", other.ID)
		return math.Inf(1)
	}

	w := 0.0
	if len(ag.Matching) > 0 {
		for _, pair := range ag.Matching {
			w += math.Abs(pair.A.Weight - pair.B.Weight)
		}
		w /= float64(len(ag.Matching))
	}

	ep := &params.Epoch
	return ep.ExcessGenesCoefficient/n*float64(ag.ExcessCount()) +
		ep.DisjointGenesCoefficient/n*float64(ag.DisjointCount()) +
		ep.WeightsCoefficient*w
}

// genomePair is an unordered pair of genome ids.
type genomePair struct {
	lo, hi int
}

// DistanceCache stores computed distances between genomes to avoid redundant
// alignments within a generation. Genomes must not change while cached.
type DistanceCache struct {
	Distances map[genomePair]float64
	Hits      int
	Misses    int
	Params    *Params
}

// NewDistanceCache creates a new distance cache.
func NewDistanceCache(params *Params) *DistanceCache {
	return &DistanceCache{
		Distances: make(map[genomePair]float64),
		Params:    params,
	}
}

// Distance calculates or retrieves the distance between two genomes.
func (dc *DistanceCache) Distance(a, b *Genome) float64 {
	key := genomePair{a.ID, b.ID}
	if key.lo > key.hi {
		key.lo, key.hi = key.hi, key.lo
	}
	if d, ok := dc.Distances[key]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := a.CompatibilityDistance(b, dc.Params)
	dc.Distances[key] = d
	return d
}
