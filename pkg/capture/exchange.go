// Package capture provides the captured-exchange data model and the durable
// store that holds captured traffic between observation and replay.
package capture

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Protocol identifies the wire protocol of a captured exchange. It is set by
// the capturing collaborator and carried opaquely by the store.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolSQL   Protocol = "sql"
	ProtocolRedis Protocol = "redis"
	ProtocolKafka Protocol = "kafka"
	ProtocolGRPC  Protocol = "grpc"
)

// IsValid checks if the protocol is valid.
func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolSQL, ProtocolRedis, ProtocolKafka, ProtocolGRPC:
		return true
	default:
		return false
	}
}

// Exchange is one captured request paired with its (possibly absent)
// response. An Exchange is created exactly once at capture time and is
// immutable once stored.
type Exchange struct {
	// ID uniquely identifies the exchange across the store.
	ID string `json:"id"`

	// Timestamp is the capture time in UTC, used for ordering.
	Timestamp time.Time `json:"timestamp"`

	// Protocol tags the exchange; the store does not interpret it.
	Protocol Protocol `json:"protocol"`

	Request RequestData `json:"request"`

	// Response is nil when no response was captured, e.g. when forwarding
	// failed before any reply arrived.
	Response *ResponseData `json:"response,omitempty"`

	// DurationMs is the elapsed time for the full exchange as observed by
	// the capturing side. Nil means not measured.
	DurationMs *int64 `json:"durationMs,omitempty"`
}

// RequestData holds the captured request details.
type RequestData struct {
	Method string `json:"method"`

	// Target is the path plus query string as seen on the wire.
	Target string `json:"target"`

	// Headers are case-normalized, last write wins on duplicate keys.
	Headers map[string]string `json:"headers,omitempty"`

	Body []byte `json:"body,omitempty"`

	QueryParams map[string]string `json:"queryParams,omitempty"`
}

// ResponseData holds the captured response details.
type ResponseData struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"body,omitempty"`
}

// EndpointKey returns the "METHOD path" grouping key for this exchange.
// Query strings are not part of the key: two exchanges for the same path
// with different query parameters aggregate together.
func (e *Exchange) EndpointKey() string {
	return EndpointKey(e.Request.Method, e.Request.Target)
}

// EndpointKey builds the grouping key from a method and a target,
// dropping any query string from the target.
func EndpointKey(method, target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	return method + " " + target
}

// FlattenHeaders collapses an http.Header into a single-valued map with
// canonical keys. When a key carries multiple values the last one wins.
func FlattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) == 0 {
			continue
		}
		out[http.CanonicalHeaderKey(key)] = values[len(values)-1]
	}
	return out
}

// FlattenQuery collapses URL query values into a single-valued map,
// last write wins on repeated parameters.
func FlattenQuery(q url.Values) map[string]string {
	if len(q) == 0 {
		return nil
	}
	out := make(map[string]string, len(q))
	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		out[key] = values[len(values)-1]
	}
	return out
}
