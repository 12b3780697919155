// Package ipc holds the division registry used to weight basket price
// variations into a consumer-price-index style composite.
package ipc

import (
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultDivision is the catch-all assigned when no resolution rule matches.
const DefaultDivision = "Alimentos y bebidas no alcohólicas"

// defaultWeights is the built-in division weight table. Weights are index
// multipliers, not a partition: they are not required to sum to 1.
var defaultWeights = map[string]float64{
	"Alimentos y bebidas no alcohólicas": 0.20,
	"Pan y cereales":                     0.20,
	"Bebidas alcohólicas y tabaco":       0.027,

	"Panificados": 0.05,
	"Almacén":     0.15,
	"Frescos":     0.20,
	"Bebidas":     0.05,

	"Prendas de vestir y calzado": 0.057,
	"Vivienda, agua, electricidad, gas y otros combustibles":                      0.15,
	"Muebles, artículos para el hogar y para la conservación ordinaria del hogar": 0.05,
	"Salud":                        0.10,
	"Transporte":                   0.10,
	"Comunicación":                 0.05,
	"Recreación y cultura":         0.05,
	"Educación":                    0.05,
	"Restaurantes y hoteles":       0.05,
	"Bienes y servicios diversos":  0.05,
}

// foodDivisions is the whitelist used by the weekly/monthly food-basket
// variation tables.
var foodDivisions = []string{
	"Alimentos y bebidas no alcohólicas",
	"Pan y cereales",
	"Panificados",
	"Almacén",
	"Frescos",
	"Bebidas",
}

// MatchRule identifies which resolution rule classified a division label.
type MatchRule string

const (
	RuleExact   MatchRule = "exact"
	RuleFuzzy   MatchRule = "fuzzy"
	RuleKeyword MatchRule = "keyword"
	RuleDefault MatchRule = "default"
)

// Registry maps division names to basket weights and normalizes free-form
// division labels. It is immutable after construction.
type Registry struct {
	weights map[string]float64
	names   []string
	scorer  Scorer
	cutoff  float64
}

// Option customises a Registry.
type Option func(*Registry)

// WithWeights overrides or extends the built-in weight table.
func WithWeights(overrides map[string]float64) Option {
	return func(r *Registry) {
		for div, w := range overrides {
			r.weights[div] = w
		}
	}
}

// WithScorer injects a custom similarity scoring strategy.
func WithScorer(s Scorer) Option {
	return func(r *Registry) {
		if s != nil {
			r.scorer = s
		}
	}
}

// WithCutoff overrides the fuzzy-match similarity threshold.
func WithCutoff(cutoff float64) Option {
	return func(r *Registry) {
		if cutoff > 0 && cutoff <= 1 {
			r.cutoff = cutoff
		}
	}
}

// NewRegistry builds a registry over the built-in weight table.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		weights: make(map[string]float64, len(defaultWeights)),
		scorer:  SequenceScorer{},
		cutoff:  defaultCutoff,
	}
	for div, w := range defaultWeights {
		r.weights[div] = w
	}
	for _, opt := range opts {
		opt(r)
	}
	r.names = make([]string, 0, len(r.weights))
	for div := range r.weights {
		r.names = append(r.names, div)
	}
	sort.Strings(r.names)
	return r
}

// WeightOf returns the basket weight for a division, or 0 when unknown.
func (r *Registry) WeightOf(division string) float64 {
	return r.weights[division]
}

// Divisions returns all known division names in sorted order.
func (r *Registry) Divisions() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// FoodDivisions returns the basic-food whitelist used by the weekly and
// monthly basket variants.
func (r *Registry) FoodDivisions() []string {
	out := make([]string, len(foodDivisions))
	copy(out, foodDivisions)
	return out
}

// IsFood reports whether a division belongs to the basic-food whitelist.
func (r *Registry) IsFood(division string) bool {
	for _, div := range foodDivisions {
		if div == division {
			return true
		}
	}
	return false
}

// Normalize resolves a free-form division label to a registered division.
// Resolution order: exact match, fuzzy similarity against known names,
// keyword heuristics, then the default catch-all. Every non-exact branch
// logs a warning naming the rule that fired so misclassifications can be
// audited.
func (r *Registry) Normalize(label string) (string, MatchRule) {
	if _, ok := r.weights[label]; ok {
		return label, RuleExact
	}

	if best, score := r.closest(label); score >= r.cutoff {
		logx.Infof("division %q not registered, fuzzy-matched to %q (score %.2f)", label, best, score)
		return best, RuleFuzzy
	}

	lower := strings.ToLower(label)
	for _, kw := range keywordRules {
		for _, sub := range kw.substrings {
			if strings.Contains(lower, sub) {
				logx.Infof("division %q not registered, keyword %q assigns %q", label, sub, kw.division)
				return kw.division, RuleKeyword
			}
		}
	}

	logx.Infof("division %q not registered, assigning default %q", label, DefaultDivision)
	return DefaultDivision, RuleDefault
}

func (r *Registry) closest(label string) (string, float64) {
	best := ""
	bestScore := 0.0
	for _, name := range r.names {
		if score := r.scorer.Ratio(label, name); score > bestScore {
			best, bestScore = name, score
		}
	}
	return best, bestScore
}

type keywordRule struct {
	division   string
	substrings []string
}

var keywordRules = []keywordRule{
	{division: "Panificados", substrings: []string{"pan", "galletita"}},
	{division: "Almacén", substrings: []string{"almacén", "arroz", "harina"}},
	{division: "Frescos", substrings: []string{"fresco", "fruta", "verdura"}},
	{division: "Bebidas", substrings: []string{"bebida"}},
}
