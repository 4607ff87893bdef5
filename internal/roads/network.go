// Package roads synthesizes the settlement road network: a terrain-aware
// minimum spanning structure over the catalog, rendered into curved
// polylines with precomputed terrain profiles.
package roads

import (
	"math"

	"github.com/talgya/waystone/internal/entropy"
	"github.com/talgya/waystone/internal/world"
)

// tieEpsilon is the cost window inside which two candidate edges count as
// equal and a seeded coin flip decides.
const tieEpsilon = 0.001

// Edge is a candidate connection during network construction. Edges exist
// only while a network is being built; Records are what gets persisted.
type Edge struct {
	From    world.Settlement
	To      world.Settlement
	Cost    float64 // importance-weighted cost
	Samples []world.TerrainSample
}

// TerrainCost returns the straight-line distance plus the summed excess
// traversal cost of every tile on the line between a and b.
func TerrainCost(f *world.Field, a, b world.Settlement) (float64, []world.TerrainSample) {
	samples := f.SampleLine(a.Position, b.Position)
	penalty := 0.0
	for _, s := range samples {
		penalty += s.TraversalCost - 1
	}
	return world.Distance(a.Position, b.Position) + penalty, samples
}

// BuildSpanningStructure connects every settlement with exactly n-1 edges
// using Prim's algorithm from the first settlement. Costs are divided by the
// mean importance of the endpoints so important settlements attract roads.
// Returned edges are oriented with From.ID < To.ID.
//
// Settlement ids are expected to be unique.
func BuildSpanningStructure(f *world.Field, nodes []world.Settlement) []Edge {
	if len(nodes) < 2 {
		return nil
	}

	rng := entropy.New(f.Seed() + "-roads-mst")

	type pair struct{ a, b int }
	type priced struct {
		cost    float64
		samples []world.TerrainSample
	}
	// Line costs do not depend on visit order, so each pair is sampled once.
	memo := make(map[pair]priced)
	price := func(i, j int) priced {
		k := pair{i, j}
		if p, ok := memo[k]; ok {
			return p
		}
		cost, samples := TerrainCost(f, nodes[i], nodes[j])
		p := priced{cost, samples}
		memo[k] = p
		return p
	}

	visited := make([]bool, len(nodes))
	order := []int{0} // visited indices in discovery order
	visited[0] = true

	edges := make([]Edge, 0, len(nodes)-1)
	for len(order) < len(nodes) {
		var best *Edge
		bestTo := -1

		for _, i := range order {
			from := nodes[i]
			for j, to := range nodes {
				if visited[j] {
					continue
				}
				p := price(i, j)
				weighted := p.cost / ((from.Importance + to.Importance) / 2)

				if best == nil || weighted < best.Cost ||
					(math.Abs(weighted-best.Cost) < tieEpsilon && rng.Bool()) {
					best = &Edge{From: from, To: to, Cost: weighted, Samples: p.samples}
					bestTo = j
				}
			}
		}

		if best == nil {
			break
		}
		visited[bestTo] = true
		order = append(order, bestTo)
		edges = append(edges, orient(*best))
	}
	return edges
}

// orient puts the lexicographically smaller settlement id first.
func orient(e Edge) Edge {
	if e.To.ID < e.From.ID {
		e.From, e.To = e.To, e.From
	}
	return e
}

// PairKey identifies an unordered settlement pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "::" + b
}
