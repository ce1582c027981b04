package recommend

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// Candidate is a catalog row eligible for recommendation with the user's prior
// rating of its title (0 when unrated).
type Candidate struct {
	Title  string
	Genres string
	Year   int
	Rating int
}

// Sampler picks up to k candidates without replacement.
type Sampler interface {
	Sample(r *rand.Rand, candidates []Candidate, k int) []Candidate
}

// Sampling strategy names accepted by SamplerByName.
const (
	StrategyUniform      = "uniform"
	StrategyRankWeighted = "rank_weighted"
)

// SamplerByName returns the sampler registered under name.
func SamplerByName(name string) (Sampler, error) {
	switch name {
	case "", StrategyUniform:
		return UniformSampler{}, nil
	case StrategyRankWeighted:
		return RankWeightedSampler{}, nil
	default:
		return nil, fmt.Errorf("unknown sampling strategy %q", name)
	}
}

// UniformSampler draws a uniformly random subset. Every candidate has the same
// chance of selection whatever its rating or position.
type UniformSampler struct{}

func (UniformSampler) Sample(r *rand.Rand, candidates []Candidate, k int) []Candidate {
	n := len(candidates)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	pool := append([]Candidate(nil), candidates...)
	// partial Fisher-Yates
	for i := 0; i < k; i++ {
		j := i + r.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// RankWeightedSampler favours rated titles. Each candidate is drawn with
// weight Rating+1, so unrated titles keep a non-zero chance.
type RankWeightedSampler struct{}

func (RankWeightedSampler) Sample(r *rand.Rand, candidates []Candidate, k int) []Candidate {
	n := len(candidates)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	type keyed struct {
		key float64
		c   Candidate
	}
	keys := make([]keyed, n)
	for i, c := range candidates {
		w := float64(c.Rating + 1)
		if w < 1 {
			w = 1
		}
		// Efraimidis-Spirakis: the k largest u^(1/w) form a weighted sample.
		u := 1 - r.Float64()
		keys[i] = keyed{key: math.Log(u) / w, c: c}
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].key > keys[j].key })

	out := make([]Candidate, k)
	for i := range out {
		out[i] = keys[i].c
	}
	return out
}
