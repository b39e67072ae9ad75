// Package optimizer proposes visit orders for route stops. It never touches
// storage; callers persist the Result and decide whether to apply it.
package optimizer

import (
	"errors"
	"fmt"
	"sort"

	"sabohub/internal/geo"
)

// MinStops is the minimum number of coordinate-bearing stops an optimization needs.
const MinStops = 2

// ErrNotEnoughStops is returned when fewer than MinStops stops carry coordinates.
var ErrNotEnoughStops = errors.New("need at least 2 customers with coordinates")

// Stop is a route stop reduced to what ordering needs.
type Stop struct {
	CustomerID uint
	Sequence   int
	Point      geo.Point
}

// Strategy orders stops. Implementations must return a permutation of the input.
type Strategy interface {
	Name() string
	Order(stops []Stop) []Stop
}

// Result is the outcome of one optimization run.
type Result struct {
	Strategy            string
	Original            []Stop
	Optimized           []Stop
	OriginalDistanceKm  float64
	OptimizedDistanceKm float64
	DistanceSavedKm     float64
	ImprovementPercent  float64
}

// OriginalIDs returns the customer ids in their current visit order.
func (r Result) OriginalIDs() []uint { return customerIDs(r.Original) }

// OptimizedIDs returns the customer ids in the proposed visit order.
func (r Result) OptimizedIDs() []uint { return customerIDs(r.Optimized) }

// Optimize compares the stops' current order (by Sequence) with the order
// proposed by strategy.
func Optimize(stops []Stop, strategy Strategy) (Result, error) {
	if len(stops) < MinStops {
		return Result{}, ErrNotEnoughStops
	}
	if strategy == nil {
		strategy = LatitudeSweep{}
	}

	original := make([]Stop, len(stops))
	copy(original, stops)
	sort.SliceStable(original, func(i, j int) bool {
		return original[i].Sequence < original[j].Sequence
	})

	candidate := make([]Stop, len(original))
	copy(candidate, original)
	optimized := strategy.Order(candidate)
	if len(optimized) != len(original) {
		return Result{}, fmt.Errorf("strategy %s returned %d stops for %d", strategy.Name(), len(optimized), len(original))
	}

	res := Result{
		Strategy:            strategy.Name(),
		Original:            original,
		Optimized:           optimized,
		OriginalDistanceKm:  PathDistanceKm(original),
		OptimizedDistanceKm: PathDistanceKm(optimized),
	}
	res.DistanceSavedKm = res.OriginalDistanceKm - res.OptimizedDistanceKm
	if res.OriginalDistanceKm > 0 {
		res.ImprovementPercent = res.DistanceSavedKm / res.OriginalDistanceKm * 100
	}
	return res, nil
}

// PathDistanceKm is the travelled distance visiting stops in the given order.
func PathDistanceKm(stops []Stop) float64 {
	points := make([]geo.Point, len(stops))
	for i, s := range stops {
		points[i] = s.Point
	}
	return geo.PathKm(points)
}

// ForName resolves a strategy by its stored name. Empty selects LatitudeSweep.
func ForName(name string) (Strategy, error) {
	switch name {
	case "", (LatitudeSweep{}).Name():
		return LatitudeSweep{}, nil
	case (NearestNeighbor2Opt{}).Name():
		return NearestNeighbor2Opt{}, nil
	default:
		return nil, fmt.Errorf("unknown optimization strategy %q", name)
	}
}

func customerIDs(stops []Stop) []uint {
	ids := make([]uint, len(stops))
	for i, s := range stops {
		ids[i] = s.CustomerID
	}
	return ids
}

// Resequence assigns visit sequences for applying order to a route whose
// stops currently run in current (customer ids in visit order). Customers of
// order take 1..k in that order; the remaining stops keep their relative
// order after them. Ids in order that are no longer on the route are ignored.
func Resequence(order, current []uint) map[uint]int {
	onRoute := make(map[uint]bool, len(current))
	for _, id := range current {
		onRoute[id] = true
	}

	seq := make(map[uint]int, len(current))
	next := 1
	for _, id := range order {
		if !onRoute[id] {
			continue
		}
		if _, dup := seq[id]; dup {
			continue
		}
		seq[id] = next
		next++
	}
	for _, id := range current {
		if _, done := seq[id]; done {
			continue
		}
		seq[id] = next
		next++
	}
	return seq
}
