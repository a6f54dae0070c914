// Package risk evaluates canonical documents against independent
// detectors and aggregates their verdicts into flags, a capped score and
// an explainable report.
package risk

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Category groups detectors that share a weight.
type Category string

const (
	CategoryEmulator  Category = "emulator"
	CategoryRoot      Category = "root"
	CategoryDebug     Category = "debug"
	CategoryInjection Category = "injection"
	CategoryTags      Category = "tags"
)

// Categories lists every category in report order.
var Categories = []Category{CategoryEmulator, CategoryRoot, CategoryDebug, CategoryInjection, CategoryTags}

// MaxScore caps the aggregated score.
const MaxScore = 100

// Weights maps a category to the points it adds when flagged.
type Weights map[Category]int

// DefaultWeights returns the stock category weights.
func DefaultWeights() Weights {
	return Weights{
		CategoryEmulator:  40,
		CategoryRoot:      30,
		CategoryDebug:     20,
		CategoryInjection: 50,
		CategoryTags:      10,
	}
}

// Verdict is a single detector's outcome.
type Verdict struct {
	Flagged  bool
	Findings []Finding
}

func (v *Verdict) add(sev Severity, format string, args ...any) {
	v.Findings = append(v.Findings, Finding{Severity: sev, Message: fmt.Sprintf(format, args...)})
}

func (v *Verdict) flag(sev Severity, format string, args ...any) {
	v.Flagged = true
	v.add(sev, format, args...)
}

// Detector evaluates one risk category against a document of type D.
type Detector[D any] interface {
	Name() string
	Category() Category
	Detect(doc *D) Verdict
}

type detectorFunc[D any] struct {
	name     string
	category Category
	fn       func(*D) Verdict
}

func (d detectorFunc[D]) Name() string          { return d.name }
func (d detectorFunc[D]) Category() Category    { return d.category }
func (d detectorFunc[D]) Detect(doc *D) Verdict { return d.fn(doc) }

// NewDetector adapts a function into a Detector.
func NewDetector[D any](name string, category Category, fn func(*D) Verdict) Detector[D] {
	return detectorFunc[D]{name: name, category: category, fn: fn}
}

// Assessment aggregates every detector's verdict.
type Assessment struct {
	Score    int
	Flags    map[Category]bool
	Findings []Finding
}

// Flagged reports whether any detector of category c fired.
func (a Assessment) Flagged(c Category) bool {
	return a.Flags[c]
}

// FlaggedCategories returns the fired categories in report order.
func (a Assessment) FlaggedCategories() []Category {
	var out []Category
	for _, c := range Categories {
		if a.Flags[c] {
			out = append(out, c)
		}
	}
	return out
}

// Engine runs a fixed detector set with category weights.
type Engine[D any] struct {
	detectors []Detector[D]
	weights   Weights
}

// NewEngine builds an engine. Missing weights fall back to the defaults.
func NewEngine[D any](weights Weights, detectors ...Detector[D]) *Engine[D] {
	merged := DefaultWeights()
	for c, w := range weights {
		merged[c] = w
	}
	return &Engine[D]{detectors: detectors, weights: merged}
}

// Evaluate runs every detector against doc. A detector that panics is
// reported as an error finding and does not affect its siblings. Each
// category contributes its weight at most once.
func (e *Engine[D]) Evaluate(doc *D) Assessment {
	a := Assessment{Flags: map[Category]bool{}}

	for _, d := range e.detectors {
		v := e.run(d, doc)
		a.Findings = append(a.Findings, v.Findings...)
		if v.Flagged && !a.Flags[d.Category()] {
			a.Flags[d.Category()] = true
			a.Score += e.weights[d.Category()]
		}
	}

	a.Score = clamp(a.Score)
	return a
}

func (e *Engine[D]) run(d Detector[D], doc *D) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("component", "risk").
				Str("detector", d.Name()).
				Interface("panic", r).
				Msg("Detector failed")
			v = Verdict{Findings: []Finding{{
				Severity: SeverityError,
				Message:  fmt.Sprintf("%s detector failed: %v", d.Name(), r),
			}}}
		}
	}()
	return d.Detect(doc)
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}
