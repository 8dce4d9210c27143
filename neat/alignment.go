package neat

// AllelePair is a pair of link genes sharing an innovation number.
type AllelePair struct {
	A *LinkGene
	B *LinkGene
}

// AlleleGenes is the result of aligning two genomes by innovation number.
type AlleleGenes struct {
	Matching  []AllelePair
	DisjointA []*LinkGene
	DisjointB []*LinkGene
	ExcessA   []*LinkGene
	ExcessB   []*LinkGene
}

// maxInnovation returns the highest innovation number among sorted links.
func maxInnovation(links []*LinkGene) int {
	if len(links) == 0 {
		return 0
	}
	return links[len(links)-1].InnovationNumber()
}

// AlignAlleleGenes sorts both genomes and aligns their link genes.
// Slot i holds innovation number i+1. A gene present in only one genome is
// excess when its number exceeds the other genome's highest number and
// disjoint otherwise. Links without an innovation are ignored.
func AlignAlleleGenes(a, b *Genome) AlleleGenes {
	a.SortGenes()
	b.SortGenes()

	maxA := maxInnovation(a.Links)
	maxB := maxInnovation(b.Links)
	size := max(maxA, maxB)

	slotsA := make([]*LinkGene, size)
	slotsB := make([]*LinkGene, size)
	for _, l := range a.Links {
		if n := l.InnovationNumber(); n > 0 {
			slotsA[n-1] = l
		}
	}
	for _, l := range b.Links {
		if n := l.InnovationNumber(); n > 0 {
			slotsB[n-1] = l
		}
	}

	var ag AlleleGenes
	for i := 0; i < size; i++ {
		la, lb := slotsA[i], slotsB[i]
		switch {
		case la != nil && lb != nil:
			ag.Matching = append(ag.Matching, AllelePair{A: la, B: lb})
		case la != nil:
			if i+1 > maxB {
				ag.ExcessA = append(ag.ExcessA, la)
			} else {
				ag.DisjointA = append(ag.DisjointA, la)
			}
		case lb != nil:
			if i+1 > maxA {
				ag.ExcessB = append(ag.ExcessB, lb)
			} else {
				ag.DisjointB = append(ag.DisjointB, lb)
			}
		}
	}
	return ag
}

// ExcessCount returns the number of excess genes on both sides.
func (ag AlleleGenes) ExcessCount() int {
	return len(ag.ExcessA) + len(ag.ExcessB)
}

// DisjointCount returns the number of disjoint genes on both sides.
func (ag AlleleGenes) DisjointCount() int {
	return len(ag.DisjointA) + len(ag.DisjointB)
}
