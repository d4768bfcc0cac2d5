package capture

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointKey_StripsQueryString(t *testing.T) {
	tests := []struct {
		method, target, want string
	}{
		{"GET", "/users", "GET /users"},
		{"GET", "/users?page=2", "GET /users"},
		{"GET", "/users?page=2&sort=asc", "GET /users"},
		{"POST", "/orders", "POST /orders"},
		{"GET", "/", "GET /"},
		{"GET", "/search?q=a?b", "GET /search"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EndpointKey(tt.method, tt.target))
	}
}

func TestExchange_EndpointKey(t *testing.T) {
	e := &Exchange{Request: RequestData{Method: "GET", Target: "/users?id=7"}}
	assert.Equal(t, "GET /users", e.EndpointKey())
}

func TestProtocol_IsValid(t *testing.T) {
	valid := []Protocol{ProtocolHTTP, ProtocolHTTPS, ProtocolSQL, ProtocolRedis, ProtocolKafka, ProtocolGRPC}
	for _, p := range valid {
		assert.True(t, p.IsValid(), "%s should be valid", p)
	}
	assert.False(t, Protocol("smtp").IsValid())
	assert.False(t, Protocol("").IsValid())
}

func TestFlattenHeaders_CanonicalizesAndLastWins(t *testing.T) {
	h := http.Header{}
	h.Add("content-type", "text/plain")
	h.Add("X-Multi", "first")
	h.Add("X-Multi", "second")

	got := FlattenHeaders(h)
	assert.Equal(t, "text/plain", got["Content-Type"])
	assert.Equal(t, "second", got["X-Multi"], "last write wins on duplicates")
}

func TestFlattenHeaders_Empty(t *testing.T) {
	assert.Nil(t, FlattenHeaders(nil))
	assert.Nil(t, FlattenHeaders(http.Header{}))
}

func TestFlattenQuery(t *testing.T) {
	q := url.Values{}
	q.Add("page", "1")
	q.Add("page", "2")
	q.Add("sort", "asc")

	got := FlattenQuery(q)
	assert.Equal(t, "2", got["page"], "last write wins on repeated params")
	assert.Equal(t, "asc", got["sort"])

	assert.Nil(t, FlattenQuery(nil))
}
