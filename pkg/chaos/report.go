package chaos

import (
	"fmt"
	"io"
)

// maxDisplayedErrors caps the error list printed in a report; the remainder
// is summarized with a count.
const maxDisplayedErrors = 10

// Report summarizes one replay run. It is the terminal artifact of the
// engine; nothing is written back to the capture store.
type Report struct {
	TotalTests    int      `json:"totalTests"`
	Passed        int      `json:"passed"`
	Failed        int      `json:"failed"`
	ChaosInjected int      `json:"chaosInjected"`
	Timeouts      int      `json:"timeouts"`
	Errors        []string `json:"errors,omitempty"`
}

// Print writes the human-readable report to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\n=== Chaos Testing Report ===\n\n")
	fmt.Fprintf(w, "Total Tests: %d\n", r.TotalTests)
	if r.TotalTests > 0 {
		fmt.Fprintf(w, "Passed: %d (%.1f%%)\n", r.Passed, float64(r.Passed)/float64(r.TotalTests)*100)
		fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", r.Failed, float64(r.Failed)/float64(r.TotalTests)*100)
	} else {
		fmt.Fprintf(w, "Passed: %d\n", r.Passed)
		fmt.Fprintf(w, "Failed: %d\n", r.Failed)
	}
	fmt.Fprintf(w, "Chaos Injected: %d\n", r.ChaosInjected)
	fmt.Fprintf(w, "Timeouts: %d\n", r.Timeouts)

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for i, msg := range r.Errors {
			if i == maxDisplayedErrors {
				fmt.Fprintf(w, "  ... and %d more\n", len(r.Errors)-maxDisplayedErrors)
				break
			}
			fmt.Fprintf(w, "  %d. %s\n", i+1, msg)
		}
	}

	fmt.Fprintln(w)
}
