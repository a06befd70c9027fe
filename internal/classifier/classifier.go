// Package classifier scores a request's complexity and decides which
// engine plan should serve it and whether its result may be cached.
package classifier

import (
	"math"
	"strings"

	"github.com/kailas-cloud/searchgate/internal/domain"
)

// Config tunes the scoring thresholds and per-type latency baselines.
type Config struct {
	SimpleThreshold  float64
	ComplexThreshold float64
	LongQueryChars   int
	LargePageSize    int
	BaseLatencyMs    map[domain.QueryType]float64
}

// DefaultConfig mirrors reasonable defaults for a moderately sized catalog;
// deployments override these via internal/config.
func DefaultConfig() Config {
	return Config{
		SimpleThreshold:  3.0,
		ComplexThreshold: 8.0,
		LongQueryChars:   80,
		LargePageSize:    100,
		BaseLatencyMs: map[domain.QueryType]float64{
			domain.TypeSimple:  50,
			domain.TypeHybrid:  150,
			domain.TypeComplex: 200,
		},
	}
}

// Classifier applies the scoring and decision rules of the request
// classification contract.
type Classifier struct {
	cfg Config
}

func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify is a pure function of its input: identical requests always
// produce identical classifications.
func (c *Classifier) Classify(req domain.Request) domain.Classification {
	features := c.score(req)
	qtype, reason := c.decide(req, features)

	return domain.Classification{
		Type:               qtype,
		ComplexityScore:    features.score,
		Cacheable:          c.cacheable(req),
		EstimatedLatencyMs: c.estimateLatency(qtype, features.score),
		Reason:             reason,
	}
}

type features struct {
	score             float64
	hasFreeText       bool
	phraseOrFuzzy     bool
	filterCount       int
	nestedFilters     bool
}

func (c *Classifier) score(req domain.Request) features {
	var f features
	q := strings.TrimSpace(req.Query)
	f.hasFreeText = q != ""

	var score float64

	if f.hasFreeText {
		words := len(strings.Fields(q))
		if words > 8 {
			words = 8
		}
		score += float64(words) * 0.5
		if len(q) > c.cfg.LongQueryChars {
			score += 2
		}
	}

	if strings.Contains(q, "\"") {
		f.phraseOrFuzzy = true
		score += 2
	}
	if strings.ContainsAny(q, "*~") {
		f.phraseOrFuzzy = true
		score += 1.5
	}

	f.filterCount = len(req.Filters)
	capped := f.filterCount
	if capped > 6 {
		capped = 6
	}
	score += float64(capped) * 0.5

	for _, filter := range req.Filters {
		switch filter.Kind {
		case domain.FilterRange:
			score += 1
		case domain.FilterArray:
			score += 0.5
			if len(filter.Array) > 5 {
				f.nestedFilters = true
				score += 1
			}
		}
	}

	for _, s := range req.Sort {
		if isTextSortField(s.Field) {
			score += 1.5
		} else {
			score += 0.5
		}
	}

	if req.Page.EffectiveSize(domain.DefaultPageSize) > c.cfg.LargePageSize {
		score += 2
	}
	if req.Options.Highlight {
		score += 1.5
	}
	if req.Options.Suggest {
		score += 1
	}

	f.score = math.Round(score*10) / 10
	return f
}

// decide applies the ordered decision rules. Order matters: a request that
// matches more than one rule takes the first match.
func (c *Classifier) decide(req domain.Request, f features) (domain.QueryType, string) {
	switch {
	case f.score <= c.cfg.SimpleThreshold && !f.hasFreeText && f.filterCount <= 2 &&
		!req.Options.Highlight && !req.Options.Suggest:
		return domain.TypeSimple, "low complexity score, no free text, few filters"

	case f.score >= c.cfg.ComplexThreshold:
		return domain.TypeComplex, "complexity score at or above the complex threshold"

	case c.requiresComplexFeature(req, f):
		return domain.TypeComplex, "requested feature requires the complex engine"

	case f.hasFreeText && f.filterCount > 0:
		return domain.TypeHybrid, "free text combined with structured filters"

	default:
		mid := (c.cfg.SimpleThreshold + c.cfg.ComplexThreshold) / 2
		if f.score < mid {
			return domain.TypeSimple, "residual case below the mid-threshold"
		}
		return domain.TypeComplex, "residual case at or above the mid-threshold"
	}
}

func (c *Classifier) requiresComplexFeature(req domain.Request, f features) bool {
	if req.Options.Highlight || req.Options.Suggest {
		return true
	}
	if f.phraseOrFuzzy {
		return true
	}
	if f.nestedFilters {
		return true
	}
	if req.Page.EffectiveSize(domain.DefaultPageSize) > c.cfg.LargePageSize {
		return true
	}
	q := strings.TrimSpace(req.Query)
	return len(q) > c.cfg.LongQueryChars && len(strings.Fields(q)) > 1
}

func (c *Classifier) cacheable(req domain.Request) bool {
	for name, filter := range req.Filters {
		if filter.Kind == domain.FilterRange && strings.Contains(strings.ToLower(name), "date") {
			return false
		}
	}
	if len(req.Query) > c.cfg.LongQueryChars {
		return false
	}
	if req.Page.EffectiveSize(domain.DefaultPageSize) > c.cfg.LargePageSize {
		return false
	}
	return true
}

func (c *Classifier) estimateLatency(t domain.QueryType, score float64) float64 {
	base := c.cfg.BaseLatencyMs[t]
	return math.Round(base*(1+score/20)*10) / 10
}

// isTextSortField guesses whether a sort field is a free-text field (which
// only the complex engine can sort on efficiently) from its name, since the
// classifier has no schema to consult.
func isTextSortField(field string) bool {
	lower := strings.ToLower(field)
	for _, hint := range []string{"date", "amount", "count", "score", "_at", "number", "id"} {
		if strings.Contains(lower, hint) {
			return false
		}
	}
	return true
}
