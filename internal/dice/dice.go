// Package dice resolves dice specifications into per-type results with
// aggregate statistics.
package dice

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

var ErrUnsupportedDie = errors.New("unsupported die type")
var ErrNegativeQuantity = errors.New("die quantity must be non-negative")
var ErrDuplicateDie = errors.New("duplicate die type")

// TypeOrder is the canonical descending sequence of supported die types.
// Anything that needs a full set of groups (the formula codec, summaries)
// iterates in this order.
var TypeOrder = [6]int{20, 12, 10, 8, 6, 4}

// Spec is a request for Quantity dice of a given side count.
type Spec struct {
	Type     int `json:"type"`
	Quantity int `json:"quantity"`
}

// Group is the resolved outcome for one Spec.
type Group struct {
	Type    int     `json:"type"`
	Results []int   `json:"results"`
	Total   int     `json:"total"`
	Best    int     `json:"best"`
	Worst   int     `json:"worst"`
	Average float64 `json:"average"`
}

// Summary aggregates across every group of one resolution. Best and Worst
// are only meaningful when a single die type produced results; mixing types
// makes a per-die comparison meaningless, so only the total survives.
type Summary struct {
	Total      int  `json:"total"`
	Best       int  `json:"best,omitempty"`
	Worst      int  `json:"worst,omitempty"`
	SingleType bool `json:"singleType"`
}

func Supported(dieType int) bool {
	for _, t := range TypeOrder {
		if t == dieType {
			return true
		}
	}
	return false
}

// NewGroup builds a Group from raw results, computing the aggregates. The
// average is truncated to one decimal, not rounded.
func NewGroup(dieType int, results []int) Group {
	g := Group{Type: dieType, Results: results}
	if len(results) == 0 {
		g.Results = []int{}
		return g
	}
	g.Best = results[0]
	g.Worst = results[0]
	for _, v := range results {
		g.Total += v
		if v > g.Best {
			g.Best = v
		}
		if v < g.Worst {
			g.Worst = v
		}
	}
	g.Average = math.Floor(float64(g.Total)/float64(len(results))*10) / 10
	return g
}

// Roller draws uniform die results. Not safe for concurrent use; callers
// that resolve from multiple goroutines create one Roller each.
type Roller struct {
	rng *rand.Rand
}

func NewRoller() *Roller {
	return &Roller{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRoller returns a deterministic Roller for tests.
func NewSeededRoller(seed int64) *Roller {
	return &Roller{rng: rand.New(rand.NewSource(seed))}
}

// Resolve draws Quantity independent uniform values in [1, Type] for each
// spec, in input order. Zero-quantity specs still produce a group with empty
// results and zero aggregates. A spec with an unsupported type, negative
// quantity or a die type already listed fails the whole resolution.
func (r *Roller) Resolve(specs []Spec) ([]Group, error) {
	seen := make(map[int]bool, len(specs))
	groups := make([]Group, 0, len(specs))
	for _, s := range specs {
		if !Supported(s.Type) {
			return nil, ErrUnsupportedDie
		}
		if s.Quantity < 0 {
			return nil, ErrNegativeQuantity
		}
		if seen[s.Type] {
			return nil, ErrDuplicateDie
		}
		seen[s.Type] = true
		results := make([]int, s.Quantity)
		for i := range results {
			results[i] = r.rng.Intn(s.Type) + 1
		}
		groups = append(groups, NewGroup(s.Type, results))
	}
	return groups, nil
}

// Summarize reduces a resolution to one line: the grand total, plus best and
// worst when exactly one die-type category rolled anything. Repeated groups
// of the same type count as one category.
func Summarize(groups []Group) Summary {
	var sum Summary
	types := make(map[int]bool)
	for _, g := range groups {
		if len(g.Results) == 0 {
			continue
		}
		sum.Total += g.Total
		if !types[g.Type] || g.Best > sum.Best {
			sum.Best = g.Best
		}
		if !types[g.Type] || g.Worst < sum.Worst {
			sum.Worst = g.Worst
		}
		types[g.Type] = true
	}
	sum.SingleType = len(types) == 1
	if !sum.SingleType {
		sum.Best = 0
		sum.Worst = 0
	}
	return sum
}
