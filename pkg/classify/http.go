package classify

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode"
)

// EndpointPattern normalizes a URL path into a route-like pattern:
// all-numeric segments become {id} and long alphanumeric-dash segments
// become {uuid}. Query strings are dropped.
func EndpointPattern(target string) string {
	path := target
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		switch {
		case seg != "" && isAllNumeric(seg):
			segments[i] = "{id}"
		case len(seg) > 20 && isAlnumDash(seg):
			segments[i] = "{uuid}"
		}
	}
	return strings.Join(segments, "/")
}

func isAllNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isAlnumDash(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

type httpDescriber struct{}

func (httpDescriber) Describe(w io.Writer, input string) error {
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	fmt.Fprintf(w, "HTTP Request Analysis:\n")
	fmt.Fprintf(w, "  Endpoint Pattern: %s\n", EndpointPattern(u.Path))
	fmt.Fprintf(w, "  Query Params: %v\n", u.Query())
	return nil
}
