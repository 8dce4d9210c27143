// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm.
//
// NEAT is a genetic algorithm for the generation of evolving artificial neural networks.
// It alters both the weighting parameters and structures of networks, attempting to find
// a balance between the fitness of evolved solutions and their diversity.
//
// The engine lives in the neat subpackage and is organized around a Community:
// a fixed-size population of genomes partitioned into species, sharing one
// innovation registry. Each generation the caller writes a fitness into every
// genome and calls Epoch, which keeps each species' elite, breeds the rest of
// the next generation and re-speciates it. Phenotypes (neat/nn) evaluate a
// genome's network with one step of self-loop memory; neat/archive keeps the
// champion of every generation in SQLite.
//
// This implementation is based on the original paper by Kenneth O. Stanley and Risto Miikkulainen.
//
// Basic usage:
//
//	// Load parameters
//	params, err := neat.LoadParams("path/to/params.ini")
//	if err != nil {
//		log.Fatalf("Error loading params: %v", err)
//	}
//
//	// Create a community of 2-input, 1-output networks
//	community, err := neat.NewCommunity(params, 2, 1, nil)
//	if err != nil {
//		log.Fatalf("Error creating community: %v", err)
//	}
//	community.Init()
//
//	// Run for 100 generations with your fitness function
//	for i := 0; i < 100; i++ {
//		if err := community.RunGeneration(evalGenomes); err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		fmt.Println("best fitness:", community.BestGenome.Fitness)
//	}
package neat
