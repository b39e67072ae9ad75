package optimizer

import (
	"sort"

	"sabohub/internal/geo"
)

// LatitudeSweep sorts stops south to north, breaking ties west to east.
// It is a cheap space-filling order, not a shortest-path solver.
type LatitudeSweep struct{}

func (LatitudeSweep) Name() string { return "latitude_sweep" }

func (LatitudeSweep) Order(stops []Stop) []Stop {
	sort.SliceStable(stops, func(i, j int) bool {
		if stops[i].Point.Lat != stops[j].Point.Lat {
			return stops[i].Point.Lat < stops[j].Point.Lat
		}
		return stops[i].Point.Lng < stops[j].Point.Lng
	})
	return stops
}

// NearestNeighbor2Opt builds a greedy nearest-neighbour path anchored at the
// first stop, then removes crossings with 2-opt until no swap shortens the path.
// The path is open: there is no return leg to the first stop.
type NearestNeighbor2Opt struct {
	// MaxPasses bounds the 2-opt loop; zero means 50.
	MaxPasses int
}

func (NearestNeighbor2Opt) Name() string { return "nearest_neighbor_2opt" }

func (n NearestNeighbor2Opt) Order(stops []Stop) []Stop {
	if len(stops) < 3 {
		return stops
	}
	path := nearestNeighbor(stops)
	passes := n.MaxPasses
	if passes <= 0 {
		passes = 50
	}
	return twoOpt(path, passes)
}

func nearestNeighbor(stops []Stop) []Stop {
	visited := make([]bool, len(stops))
	path := make([]Stop, 0, len(stops))

	cur := 0
	visited[cur] = true
	path = append(path, stops[cur])
	for len(path) < len(stops) {
		next := -1
		best := 0.0
		for i := range stops {
			if visited[i] {
				continue
			}
			d := geo.DistanceKm(stops[cur].Point, stops[i].Point)
			if next == -1 || d < best {
				next, best = i, d
			}
		}
		visited[next] = true
		path = append(path, stops[next])
		cur = next
	}
	return path
}

// twoOpt reverses path[i..j] whenever that shortens the open path. The first
// stop stays fixed.
func twoOpt(path []Stop, maxPasses int) []Stop {
	const eps = 1e-9
	n := len(path)
	for pass := 0; pass < maxPasses; pass++ {
		improved := false
		for i := 1; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				before := geo.DistanceKm(path[i-1].Point, path[i].Point)
				after := geo.DistanceKm(path[i-1].Point, path[j].Point)
				if j+1 < n {
					before += geo.DistanceKm(path[j].Point, path[j+1].Point)
					after += geo.DistanceKm(path[i].Point, path[j+1].Point)
				}
				if after+eps < before {
					reverse(path[i : j+1])
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return path
}

func reverse(s []Stop) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
