package capture

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

// timestampLayout is fixed-width so that lexicographic ordering of the
// stored column matches chronological ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id               TEXT PRIMARY KEY,
	timestamp        TEXT NOT NULL,
	protocol         TEXT NOT NULL,
	method           TEXT NOT NULL,
	target           TEXT NOT NULL,
	headers          TEXT NOT NULL,
	query_params     TEXT,
	body             BLOB,
	response_status  INTEGER,
	response_headers TEXT,
	response_body    BLOB,
	duration_ms      INTEGER
);
CREATE INDEX IF NOT EXISTS idx_exchanges_timestamp ON exchanges(timestamp);
CREATE INDEX IF NOT EXISTS idx_exchanges_target ON exchanges(target);
`

// Store is the durable, append-only record of captured exchanges backed by a
// SQLite file. Writes are funneled through a single-writer mutex because all
// connections share one physical database handle; reads take the shared side
// of the same lock. The store never updates or deletes rows.
type Store struct {
	mu sync.RWMutex
	db *sqlx.DB
}

// Open opens (creating if needed) the capture store at path and ensures the
// schema exists. An open failure is fatal to the caller at startup.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open capture store: %w", err)
	}

	// One physical handle; the mutex above is the writer discipline.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init capture schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// exchangeRow is the flat row shape used for sqlx scanning.
type exchangeRow struct {
	ID              string         `db:"id"`
	Timestamp       string         `db:"timestamp"`
	Protocol        string         `db:"protocol"`
	Method          string         `db:"method"`
	Target          string         `db:"target"`
	Headers         string         `db:"headers"`
	QueryParams     sql.NullString `db:"query_params"`
	Body            []byte         `db:"body"`
	ResponseStatus  sql.NullInt64  `db:"response_status"`
	ResponseHeaders sql.NullString `db:"response_headers"`
	ResponseBody    []byte         `db:"response_body"`
	DurationMs      sql.NullInt64  `db:"duration_ms"`
}

// Put persists an exchange. Concurrent calls are safe; each row is written
// atomically under the writer lock. A duplicate ID is an error because
// records are immutable once stored.
func (s *Store) Put(e *Exchange) error {
	if e == nil {
		return fmt.Errorf("put: nil exchange")
	}
	if e.ID == "" {
		return fmt.Errorf("put: exchange has no id")
	}

	headersJSON, err := json.Marshal(e.Request.Headers)
	if err != nil {
		return fmt.Errorf("put %s: encode headers: %w", e.ID, err)
	}

	var queryJSON sql.NullString
	if e.Request.QueryParams != nil {
		b, err := json.Marshal(e.Request.QueryParams)
		if err != nil {
			return fmt.Errorf("put %s: encode query params: %w", e.ID, err)
		}
		queryJSON = sql.NullString{String: string(b), Valid: true}
	}

	var respStatus sql.NullInt64
	var respHeaders sql.NullString
	var respBody []byte
	if e.Response != nil {
		respStatus = sql.NullInt64{Int64: int64(e.Response.StatusCode), Valid: true}
		b, err := json.Marshal(e.Response.Headers)
		if err != nil {
			return fmt.Errorf("put %s: encode response headers: %w", e.ID, err)
		}
		respHeaders = sql.NullString{String: string(b), Valid: true}
		respBody = e.Response.Body
	}

	var durationMs sql.NullInt64
	if e.DurationMs != nil {
		durationMs = sql.NullInt64{Int64: *e.DurationMs, Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO exchanges (
			id, timestamp, protocol, method, target, headers, query_params,
			body, response_status, response_headers, response_body, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Timestamp.UTC().Format(timestampLayout),
		string(e.Protocol),
		e.Request.Method,
		e.Request.Target,
		string(headersJSON),
		queryJSON,
		e.Request.Body,
		respStatus,
		respHeaders,
		respBody,
		durationMs,
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", e.ID, err)
	}
	return nil
}

// All returns every stored exchange ordered by timestamp ascending, as a
// fully materialized snapshot. Batch consumers rely on this ordering.
func (s *Store) All() ([]*Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []exchangeRow
	err := s.db.Select(&rows, `
		SELECT id, timestamp, protocol, method, target, headers, query_params,
		       body, response_status, response_headers, response_body, duration_ms
		FROM exchanges
		ORDER BY timestamp`)
	if err != nil {
		return nil, fmt.Errorf("read capture store: %w", err)
	}

	out := make([]*Exchange, 0, len(rows))
	for i := range rows {
		e, err := decodeRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Count returns the total number of stored exchanges.
func (s *Store) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM exchanges`); err != nil {
		return 0, fmt.Errorf("count exchanges: %w", err)
	}
	return n, nil
}

// ByEndpoint returns the exchanges whose "METHOD path" key equals key,
// ordered by timestamp ascending. The comparison ignores query strings,
// matching the aggregation granularity used by the analyzer.
func (s *Store) ByEndpoint(key string) ([]*Exchange, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var out []*Exchange
	for _, e := range all {
		if e.EndpointKey() == key {
			out = append(out, e)
		}
	}
	return out, nil
}

// UniqueEndpoints returns the distinct "METHOD path" keys observed in the
// store, sorted lexicographically.
func (s *Store) UniqueEndpoints() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pairs []struct {
		Method string `db:"method"`
		Target string `db:"target"`
	}
	err := s.db.Select(&pairs, `SELECT DISTINCT method, target FROM exchanges`)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}

	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		seen[EndpointKey(p.Method, p.Target)] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func decodeRow(r *exchangeRow) (*Exchange, error) {
	ts, err := time.Parse(timestampLayout, r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("decode %s: bad timestamp %q: %w", r.ID, r.Timestamp, err)
	}

	var headers map[string]string
	if err := json.Unmarshal([]byte(r.Headers), &headers); err != nil {
		return nil, fmt.Errorf("decode %s: headers: %w", r.ID, err)
	}

	var queryParams map[string]string
	if r.QueryParams.Valid {
		if err := json.Unmarshal([]byte(r.QueryParams.String), &queryParams); err != nil {
			return nil, fmt.Errorf("decode %s: query params: %w", r.ID, err)
		}
	}

	e := &Exchange{
		ID:        r.ID,
		Timestamp: ts,
		Protocol:  Protocol(r.Protocol),
		Request: RequestData{
			Method:      r.Method,
			Target:      r.Target,
			Headers:     headers,
			Body:        r.Body,
			QueryParams: queryParams,
		},
	}

	if r.ResponseStatus.Valid {
		resp := &ResponseData{
			StatusCode: int(r.ResponseStatus.Int64),
			Body:       r.ResponseBody,
		}
		if r.ResponseHeaders.Valid {
			if err := json.Unmarshal([]byte(r.ResponseHeaders.String), &resp.Headers); err != nil {
				return nil, fmt.Errorf("decode %s: response headers: %w", r.ID, err)
			}
		}
		e.Response = resp
	}

	if r.DurationMs.Valid {
		d := r.DurationMs.Int64
		e.DurationMs = &d
	}

	return e, nil
}
