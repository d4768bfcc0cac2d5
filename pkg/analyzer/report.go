package analyzer

import (
	"fmt"
	"io"
	"sort"
)

// Display caps for the printed report; the full data stays in the Report.
const (
	maxDisplayedEndpoints = 10
	maxDisplayedPatterns  = 5
)

// DependencyType classifies an inferred backing system.
type DependencyType string

const (
	DependencyDatabase DependencyType = "database"
	DependencyCache    DependencyType = "cache"
)

// Dependency is one inferred backing-system relationship for an endpoint.
type Dependency struct {
	Type      DependencyType `json:"type"`
	Target    string         `json:"target"`
	CallCount int            `json:"callCount"`
}

// EndpointStats aggregates all exchanges sharing one endpoint key.
type EndpointStats struct {
	// Endpoint is the "METHOD path" grouping key.
	Endpoint string `json:"endpoint"`

	Count int `json:"count"`

	// Duration figures cover only exchanges with a measured duration.
	// All three are zero when no exchange in the group carried one.
	AvgDurationMs float64 `json:"avgDurationMs"`
	MinDurationMs int64   `json:"minDurationMs"`
	MaxDurationMs int64   `json:"maxDurationMs"`

	// SuccessRate is the percentage of exchanges in the group with a
	// recorded response below status 400. Response-less exchanges drag
	// the rate down without counting as errors.
	SuccessRate float64 `json:"successRate"`
}

// BehaviorPattern describes one endpoint's observed behavior including its
// inferred dependencies.
type BehaviorPattern struct {
	Endpoint      string       `json:"endpoint"`
	Method        string       `json:"method"`
	RequestCount  int          `json:"requestCount"`
	AvgDurationMs float64      `json:"avgDurationMs"`
	SuccessRate   float64      `json:"successRate"`
	Dependencies  []Dependency `json:"dependencies,omitempty"`
}

// Report is the full analysis of a capture snapshot.
type Report struct {
	TotalRequests     int               `json:"totalRequests"`
	UniqueEndpoints   int               `json:"uniqueEndpoints"`
	AvgResponseTimeMs float64           `json:"avgResponseTimeMs"`
	SuccessCount      int               `json:"successCount"`
	ErrorCount        int               `json:"errorCount"`
	StatusCodes       map[int]int       `json:"statusCodes"`
	Methods           map[string]int    `json:"methods"`
	Endpoints         []EndpointStats   `json:"endpoints"`
	BehaviorPatterns  []BehaviorPattern `json:"behaviorPatterns,omitempty"`
}

// Print writes the human-readable report to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\n=== Traffic Analysis Report ===\n\n")
	fmt.Fprintf(w, "Total Requests: %d\n", r.TotalRequests)
	fmt.Fprintf(w, "Unique Endpoints: %d\n", r.UniqueEndpoints)
	fmt.Fprintf(w, "Avg Response Time: %.1fms\n", r.AvgResponseTimeMs)
	fmt.Fprintf(w, "Success: %d  Errors: %d\n", r.SuccessCount, r.ErrorCount)

	if len(r.Methods) > 0 {
		fmt.Fprintf(w, "\nMethods:\n")
		for _, method := range sortedKeys(r.Methods) {
			fmt.Fprintf(w, "  %s: %d\n", method, r.Methods[method])
		}
	}

	if len(r.StatusCodes) > 0 {
		fmt.Fprintf(w, "\nStatus Codes:\n")
		codes := make([]int, 0, len(r.StatusCodes))
		for code := range r.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(w, "  %d: %d\n", code, r.StatusCodes[code])
		}
	}

	if len(r.Endpoints) > 0 {
		fmt.Fprintf(w, "\nTop Endpoints:\n")
		for i, ep := range r.Endpoints {
			if i == maxDisplayedEndpoints {
				fmt.Fprintf(w, "  ... and %d more\n", len(r.Endpoints)-maxDisplayedEndpoints)
				break
			}
			fmt.Fprintf(w, "  %d. %s\n", i+1, ep.Endpoint)
			fmt.Fprintf(w, "     requests: %d  avg: %.1fms  min: %dms  max: %dms  success: %.1f%%\n",
				ep.Count, ep.AvgDurationMs, ep.MinDurationMs, ep.MaxDurationMs, ep.SuccessRate)
		}
	}

	if len(r.BehaviorPatterns) > 0 {
		fmt.Fprintf(w, "\nBehavior Patterns:\n")
		for i, bp := range r.BehaviorPatterns {
			if i == maxDisplayedPatterns {
				fmt.Fprintf(w, "  ... and %d more\n", len(r.BehaviorPatterns)-maxDisplayedPatterns)
				break
			}
			fmt.Fprintf(w, "  %s %s (%d requests, %.1f%% success)\n",
				bp.Method, bp.Endpoint, bp.RequestCount, bp.SuccessRate)
			for _, dep := range bp.Dependencies {
				fmt.Fprintf(w, "    -> %s %s (%d calls)\n", dep.Type, dep.Target, dep.CallCount)
			}
		}
	}

	fmt.Fprintln(w)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
