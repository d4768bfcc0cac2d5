// Package classify provides lightweight protocol-aware classification of
// captured payloads: SQL statements, Redis commands, HTTP paths, Kafka
// topics, and gRPC service paths.
package classify

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Describer analyzes one input string for a given protocol and writes a
// human-readable breakdown to w.
type Describer interface {
	Describe(w io.Writer, input string) error
}

// The set of supported protocol names is closed; additions require a new
// Describer implementation here.
var describers = map[string]Describer{
	"sql":   sqlDescriber{},
	"redis": redisDescriber{},
	"http":  httpDescriber{},
	"kafka": kafkaDescriber{},
	"grpc":  grpcDescriber{},
}

// For returns the Describer for a protocol name, or an error listing the
// supported protocols when the name is unknown.
func For(protocol string) (Describer, error) {
	d, ok := describers[strings.ToLower(protocol)]
	if !ok {
		return nil, fmt.Errorf("unsupported protocol %q (supported: %s)",
			protocol, strings.Join(Protocols(), ", "))
	}
	return d, nil
}

// Protocols lists the supported protocol names, sorted.
func Protocols() []string {
	names := make([]string, 0, len(describers))
	for name := range describers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
