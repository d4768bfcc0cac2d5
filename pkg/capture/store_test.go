package capture

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func int64Ptr(v int64) *int64 { return &v }

func newExchange(id, method, target string, ts time.Time) *Exchange {
	return &Exchange{
		ID:        id,
		Timestamp: ts,
		Protocol:  ProtocolHTTP,
		Request: RequestData{
			Method: method,
			Target: target,
		},
	}
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open("/nonexistent-dir/definitely/missing/capture.db")
	require.Error(t, err)
}

func TestStore_PutAndRoundTrip(t *testing.T) {
	s := tempStore(t)

	ts := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	want := &Exchange{
		ID:        "ex-1",
		Timestamp: ts,
		Protocol:  ProtocolHTTPS,
		Request: RequestData{
			Method:      "POST",
			Target:      "/orders?priority=high",
			Headers:     map[string]string{"Content-Type": "application/json", "X-Trace": "abc"},
			Body:        []byte(`{"sku":"A1"}`),
			QueryParams: map[string]string{"priority": "high"},
		},
		Response: &ResponseData{
			StatusCode: 201,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(`{"ok":true}`),
		},
		DurationMs: int64Ptr(42),
	}

	require.NoError(t, s.Put(want))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %v != %v", got.Timestamp, want.Timestamp)
	assert.Equal(t, want.Protocol, got.Protocol)
	assert.Equal(t, want.Request.Method, got.Request.Method)
	assert.Equal(t, want.Request.Target, got.Request.Target)
	assert.Equal(t, want.Request.Headers, got.Request.Headers)
	assert.Equal(t, want.Request.Body, got.Request.Body)
	assert.Equal(t, want.Request.QueryParams, got.Request.QueryParams)
	require.NotNil(t, got.Response)
	assert.Equal(t, want.Response.StatusCode, got.Response.StatusCode)
	assert.Equal(t, want.Response.Headers, got.Response.Headers)
	assert.Equal(t, want.Response.Body, got.Response.Body)
	require.NotNil(t, got.DurationMs)
	assert.Equal(t, int64(42), *got.DurationMs)
}

func TestStore_OptionalFieldsAbsent(t *testing.T) {
	s := tempStore(t)

	// No response, no duration, no body: forwarding failed before any reply.
	e := newExchange("ex-absent", "GET", "/ping", time.Now().UTC())
	require.NoError(t, s.Put(e))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Nil(t, got.Response, "absent response must read back as nil")
	assert.Nil(t, got.DurationMs, "absent duration must read back as nil")
	assert.Nil(t, got.Request.Body)
	assert.Nil(t, got.Request.QueryParams)
}

func TestStore_AllOrderedByTimestamp(t *testing.T) {
	s := tempStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of chronological order on purpose.
	require.NoError(t, s.Put(newExchange("c", "GET", "/c", base.Add(2*time.Second))))
	require.NoError(t, s.Put(newExchange("a", "GET", "/a", base)))
	require.NoError(t, s.Put(newExchange("b", "GET", "/b", base.Add(time.Second))))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 3)

	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.Before(all[i-1].Timestamp),
			"exchange %d (%s) out of order", i, all[i].ID)
	}
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[2].ID)
}

func TestStore_ReadIdempotence(t *testing.T) {
	s := tempStore(t)
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(newExchange(fmt.Sprintf("ex-%d", i), "GET", "/x", base.Add(time.Duration(i)*time.Millisecond))))
	}

	first, err := s.All()
	require.NoError(t, err)
	second, err := s.All()
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestStore_CountMatchesPuts(t *testing.T) {
	s := tempStore(t)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	base := time.Now().UTC()
	for i := 0; i < 7; i++ {
		require.NoError(t, s.Put(newExchange(fmt.Sprintf("ex-%d", i), "GET", "/x", base.Add(time.Duration(i)*time.Millisecond))))
	}

	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	s := tempStore(t)
	ts := time.Now().UTC()

	require.NoError(t, s.Put(newExchange("dup", "GET", "/a", ts)))
	err := s.Put(newExchange("dup", "GET", "/b", ts))
	require.Error(t, err, "records are immutable, duplicate id must fail")

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_ByEndpoint(t *testing.T) {
	s := tempStore(t)
	base := time.Now().UTC()

	require.NoError(t, s.Put(newExchange("1", "GET", "/users", base)))
	require.NoError(t, s.Put(newExchange("2", "GET", "/users?page=2", base.Add(time.Millisecond))))
	require.NoError(t, s.Put(newExchange("3", "POST", "/users", base.Add(2*time.Millisecond))))
	require.NoError(t, s.Put(newExchange("4", "GET", "/orders", base.Add(3*time.Millisecond))))

	got, err := s.ByEndpoint("GET /users")
	require.NoError(t, err)
	require.Len(t, got, 2, "query strings must not split the endpoint key")
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)

	got, err = s.ByEndpoint("POST /users")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	got, err = s.ByEndpoint("DELETE /users")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_UniqueEndpoints(t *testing.T) {
	s := tempStore(t)
	base := time.Now().UTC()

	require.NoError(t, s.Put(newExchange("1", "GET", "/users", base)))
	require.NoError(t, s.Put(newExchange("2", "GET", "/users?page=2", base.Add(time.Millisecond))))
	require.NoError(t, s.Put(newExchange("3", "POST", "/orders", base.Add(2*time.Millisecond))))

	keys, err := s.UniqueEndpoints()
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /users", "POST /orders"}, keys)
}

func TestStore_ConcurrentPuts(t *testing.T) {
	s := tempStore(t)

	const writers = 10
	const perWriter = 20

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				e := newExchange(fmt.Sprintf("w%d-%d", w, i), "GET", "/concurrent", time.Now().UTC())
				if err := s.Put(e); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Put() error: %v", err)
	}

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(writers*perWriter), n)

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, writers*perWriter)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.Before(all[i-1].Timestamp), "ordering violated at %d", i)
	}
}
