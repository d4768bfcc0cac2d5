// Package analyzer turns a capture snapshot into aggregate behavioral
// statistics: per-endpoint latency and success rates, global histograms,
// and inferred dependencies.
package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getreplayd/replayd/pkg/capture"
)

// Snapshot provides the materialized capture set the analyzer reads.
// *capture.Store satisfies it. The analyzer never modifies the store.
type Snapshot interface {
	All() ([]*capture.Exchange, error)
}

// Analyzer computes descriptive statistics over a capture snapshot.
type Analyzer struct {
	store Snapshot
}

// New creates an Analyzer over the given snapshot.
func New(store Snapshot) *Analyzer {
	return &Analyzer{store: store}
}

// Analyze computes the full report. An empty snapshot yields a well-defined
// zero-valued report, not an error.
func (a *Analyzer) Analyze() (*Report, error) {
	exchanges, err := a.store.All()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	report := &Report{
		StatusCodes: make(map[int]int),
		Methods:     make(map[string]int),
		Endpoints:   []EndpointStats{},
	}
	report.TotalRequests = len(exchanges)

	groups := make(map[string][]*capture.Exchange)
	for _, ex := range exchanges {
		key := ex.EndpointKey()
		groups[key] = append(groups[key], ex)

		report.Methods[ex.Request.Method]++

		// Exchanges with no recorded response sit outside the
		// success/failure tally entirely.
		if ex.Response != nil {
			report.StatusCodes[ex.Response.StatusCode]++
			if ex.Response.StatusCode < 400 {
				report.SuccessCount++
			} else {
				report.ErrorCount++
			}
		}
	}
	report.UniqueEndpoints = len(groups)

	var totalDuration int64
	var totalDurationCount int
	for key, group := range groups {
		stats := endpointStats(key, group)
		report.Endpoints = append(report.Endpoints, stats)

		for _, ex := range group {
			if ex.DurationMs != nil {
				totalDuration += *ex.DurationMs
				totalDurationCount++
			}
		}
	}
	if totalDurationCount > 0 {
		report.AvgResponseTimeMs = float64(totalDuration) / float64(totalDurationCount)
	}

	sort.Slice(report.Endpoints, func(i, j int) bool {
		if report.Endpoints[i].Count != report.Endpoints[j].Count {
			return report.Endpoints[i].Count > report.Endpoints[j].Count
		}
		return report.Endpoints[i].Endpoint < report.Endpoints[j].Endpoint
	})

	report.BehaviorPatterns = behaviorPatterns(groups)

	return report, nil
}

// endpointStats aggregates one endpoint group. Duration stats cover only
// exchanges with a recorded duration; the others still count toward Count.
func endpointStats(key string, group []*capture.Exchange) EndpointStats {
	stats := EndpointStats{Endpoint: key, Count: len(group)}

	var totalDuration int64
	var durationCount int
	var successCount int
	for _, ex := range group {
		if ex.DurationMs != nil {
			d := *ex.DurationMs
			totalDuration += d
			if durationCount == 0 || d < stats.MinDurationMs {
				stats.MinDurationMs = d
			}
			if d > stats.MaxDurationMs {
				stats.MaxDurationMs = d
			}
			durationCount++
		}
		if ex.Response != nil && ex.Response.StatusCode < 400 {
			successCount++
		}
	}

	if durationCount > 0 {
		stats.AvgDurationMs = float64(totalDuration) / float64(durationCount)
	}
	stats.SuccessRate = float64(successCount) / float64(stats.Count) * 100

	return stats
}

// behaviorPatterns builds per-endpoint patterns with inferred dependencies,
// sorted by descending request count.
func behaviorPatterns(groups map[string][]*capture.Exchange) []BehaviorPattern {
	patterns := make([]BehaviorPattern, 0, len(groups))

	for key, group := range groups {
		method, endpoint, _ := strings.Cut(key, " ")
		stats := endpointStats(key, group)

		patterns = append(patterns, BehaviorPattern{
			Endpoint:      endpoint,
			Method:        method,
			RequestCount:  len(group),
			AvgDurationMs: stats.AvgDurationMs,
			SuccessRate:   stats.SuccessRate,
			Dependencies:  inferDependencies(group),
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].RequestCount != patterns[j].RequestCount {
			return patterns[i].RequestCount > patterns[j].RequestCount
		}
		if patterns[i].Endpoint != patterns[j].Endpoint {
			return patterns[i].Endpoint < patterns[j].Endpoint
		}
		return patterns[i].Method < patterns[j].Method
	})

	return patterns
}

// inferDependencies attributes backing-system calls from path substrings.
// This is a heuristic, not a call-graph trace: a path that merely contains
// "/users" or "/cache" is attributed whether or not those systems were
// actually touched.
func inferDependencies(group []*capture.Exchange) []Dependency {
	counts := make(map[string]*Dependency)

	record := func(depType DependencyType, target string) {
		if d, ok := counts[target]; ok {
			d.CallCount++
			return
		}
		counts[target] = &Dependency{Type: depType, Target: target, CallCount: 1}
	}

	for _, ex := range group {
		target := ex.Request.Target
		if strings.Contains(target, "/users") || strings.Contains(target, "/products") {
			record(DependencyDatabase, "database")
		}
		if strings.Contains(target, "/cache") {
			record(DependencyCache, "redis")
		}
	}

	deps := make([]Dependency, 0, len(counts))
	for _, d := range counts {
		deps = append(deps, *d)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Target < deps[j].Target })
	return deps
}
