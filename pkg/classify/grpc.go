package classify

import (
	"fmt"
	"io"
	"strings"
)

// MethodType classifies a gRPC method by its naming convention.
type MethodType string

const (
	MethodQuery  MethodType = "query"
	MethodCreate MethodType = "create"
	MethodUpdate MethodType = "update"
	MethodDelete MethodType = "delete"
	MethodStream MethodType = "stream"
	MethodUnary  MethodType = "unary"
)

// SplitServicePath splits a "/package.Service/Method" path into its service
// and method parts. ok is false when the path does not match that shape.
func SplitServicePath(path string) (service, method string, ok bool) {
	if !strings.HasPrefix(path, "/") {
		return "", "", false
	}
	parts := strings.Split(path[1:], "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ServicePackage returns the protobuf package portion of a qualified
// service name, or "" when the name is unqualified.
func ServicePackage(service string) string {
	if i := strings.LastIndexByte(service, '.'); i >= 0 {
		return service[:i]
	}
	return ""
}

// ClassifyMethod maps a method name to a MethodType by prefix convention.
// Names with no recognized prefix classify as unary.
func ClassifyMethod(method string) MethodType {
	lower := strings.ToLower(method)
	switch {
	case strings.HasPrefix(lower, "get"), strings.HasPrefix(lower, "list"):
		return MethodQuery
	case strings.HasPrefix(lower, "create"), strings.HasPrefix(lower, "add"):
		return MethodCreate
	case strings.HasPrefix(lower, "update"), strings.HasPrefix(lower, "modify"):
		return MethodUpdate
	case strings.HasPrefix(lower, "delete"), strings.HasPrefix(lower, "remove"):
		return MethodDelete
	case strings.HasPrefix(lower, "watch"), strings.Contains(lower, "stream"):
		return MethodStream
	default:
		return MethodUnary
	}
}

// IsStreaming reports whether the method name follows a streaming
// convention.
func IsStreaming(method string) bool {
	return ClassifyMethod(method) == MethodStream
}

type grpcDescriber struct{}

func (grpcDescriber) Describe(w io.Writer, input string) error {
	fmt.Fprintf(w, "gRPC Service Analysis:\n")

	service, method, ok := SplitServicePath(input)
	if !ok {
		fmt.Fprintf(w, "  Invalid gRPC path format\n")
		fmt.Fprintf(w, "  Expected: /package.Service/Method\n")
		return nil
	}

	fmt.Fprintf(w, "  Service: %s\n", service)
	fmt.Fprintf(w, "  Method: %s\n", method)
	if pkg := ServicePackage(service); pkg != "" {
		fmt.Fprintf(w, "  Package: %s\n", pkg)
	}
	fmt.Fprintf(w, "  Type: %s\n", ClassifyMethod(method))
	fmt.Fprintf(w, "  Streaming: %t\n", IsStreaming(method))
	return nil
}
