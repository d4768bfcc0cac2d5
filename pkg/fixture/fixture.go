// Package fixture exports captured exchanges as YAML test fixtures that a
// replay harness can feed back against a live service.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/getreplayd/replayd/pkg/capture"
)

// FileName is the fixture file written inside the output directory.
const FileName = "fixtures_generated.yaml"

// Case is one replayable request with its expected outcome. ExpectedStatus
// is nil when the capture carried no response.
type Case struct {
	Name           string            `yaml:"name"`
	Method         string            `yaml:"method"`
	Target         string            `yaml:"target"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	Body           string            `yaml:"body,omitempty"`
	ExpectedStatus *int              `yaml:"expectedStatus,omitempty"`
}

// Document is the root of an exported fixture file.
type Document struct {
	Cases []Case `yaml:"cases"`
}

// Skipped at export time: these are set by the transport on replay and
// pinning captured values would break the requests.
var skippedHeaders = map[string]bool{
	"Host":           true,
	"Content-Length": true,
}

// Export writes one fixture case per exchange into dir, creating it if
// needed, and returns the path of the written file. The caller is expected
// to reject empty inputs beforehand; exporting zero exchanges still writes
// a valid file with an empty case list.
func Export(exchanges []*capture.Exchange, dir string) (string, error) {
	doc := Document{Cases: make([]Case, 0, len(exchanges))}
	for _, ex := range exchanges {
		doc.Cases = append(doc.Cases, fromExchange(ex))
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("marshal fixtures: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write fixtures: %w", err)
	}

	return path, nil
}

func fromExchange(ex *capture.Exchange) Case {
	c := Case{
		Name:   ex.EndpointKey(),
		Method: ex.Request.Method,
		Target: ex.Request.Target,
		Body:   string(ex.Request.Body),
	}

	for key, value := range ex.Request.Headers {
		if skippedHeaders[key] {
			continue
		}
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
	}

	if ex.Response != nil {
		status := ex.Response.StatusCode
		c.ExpectedStatus = &status
	}

	return c
}
