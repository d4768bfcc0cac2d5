// Package proxy provides the interception proxy that observes live HTTP
// traffic and turns each exchange into one capture store record.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/getreplayd/replayd/internal/id"
	"github.com/getreplayd/replayd/pkg/capture"
	"github.com/getreplayd/replayd/pkg/logging"
	"github.com/getreplayd/replayd/pkg/metrics"
)

const (
	// DefaultMaxBodyBytes is the maximum body size captured per direction (10MB).
	DefaultMaxBodyBytes = 10 * 1024 * 1024

	// DefaultForwardTimeout bounds each outbound forwarded call.
	DefaultForwardTimeout = 10 * time.Second
)

// Sink receives captured exchanges. *capture.Store satisfies it.
type Sink interface {
	Put(e *capture.Exchange) error
}

// Options configures the interception proxy.
type Options struct {
	// Store receives one exchange per inbound request. Required.
	Store Sink

	// Target is the base URL traffic is forwarded to. Empty means no
	// forwarding: the proxy synthesizes an acknowledgement response.
	Target string

	// Client is the outbound HTTP client. Defaults to a client with a
	// 10 second timeout.
	Client *http.Client

	// Logger for traffic logging. Defaults to a no-op logger.
	Logger *slog.Logger

	// MaxBodyBytes caps captured body sizes. Defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Proxy accepts inbound HTTP exchanges, optionally forwards them to a real
// backend, and stores exactly one exchange per request regardless of the
// forwarding outcome. Requests are handled concurrently; the capture store
// absorbs write concurrency under its own single-writer discipline.
type Proxy struct {
	store   Sink
	target  string
	client  *http.Client
	logger  *slog.Logger
	maxBody int64
}

// New creates a Proxy from options.
func New(opts Options) *Proxy {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultForwardTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Proxy{
		store:   opts.Store,
		target:  opts.Target,
		client:  client,
		logger:  logger,
		maxBody: maxBody,
	}
}

// ServeHTTP implements http.Handler. Each inbound exchange is captured,
// forwarded or acknowledged, and recorded. A storage failure never alters
// the response already computed for the caller.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var reqBody []byte
	if r.Body != nil {
		var err error
		reqBody, err = io.ReadAll(io.LimitReader(r.Body, p.maxBody))
		if err != nil {
			p.logger.Error("reading request body", "error", err)
			http.Error(w, "error reading request", http.StatusBadGateway)
			return
		}
		_ = r.Body.Close()
	}

	exchangeID := id.Exchange()
	p.logger.Debug("inbound exchange", "method", r.Method, "target", r.URL.RequestURI(), "id", exchangeID)

	var resp *capture.ResponseData
	if p.target != "" {
		resp = p.forward(r, reqBody)
	} else {
		resp = acknowledge(exchangeID)
	}

	durationMs := time.Since(start).Milliseconds()

	protocol := capture.ProtocolHTTP
	if r.TLS != nil {
		protocol = capture.ProtocolHTTPS
	}

	e := &capture.Exchange{
		ID:        exchangeID,
		Timestamp: time.Now().UTC(),
		Protocol:  protocol,
		Request: capture.RequestData{
			Method:      r.Method,
			Target:      r.URL.RequestURI(),
			Headers:     capture.FlattenHeaders(r.Header),
			Body:        reqBody,
			QueryParams: capture.FlattenQuery(r.URL.Query()),
		},
		Response:   resp,
		DurationMs: &durationMs,
	}

	// Capture is best-effort: a failed write is logged and counted but the
	// caller still receives the response computed above.
	if err := p.store.Put(e); err != nil {
		metrics.StoreFailures.Inc()
		p.logger.Error("storing exchange", "id", exchangeID, "error", err)
	} else {
		metrics.ExchangesCaptured.WithLabelValues(r.Method, strconv.Itoa(resp.StatusCode)).Inc()
		p.logger.Info("captured",
			"method", r.Method,
			"target", r.URL.RequestURI(),
			"status", resp.StatusCode,
			"duration_ms", durationMs)
	}

	writeResponse(w, resp)
}

// forward issues an equivalent outbound request and captures the reply.
// A forwarding failure synthesizes a 502 response; it never aborts the
// listener loop.
func (p *Proxy) forward(r *http.Request, body []byte) *capture.ResponseData {
	outURL := p.target + r.URL.RequestURI()

	out, err := http.NewRequestWithContext(r.Context(), r.Method, outURL, bytes.NewReader(body))
	if err != nil {
		metrics.ForwardFailures.Inc()
		p.logger.Warn("building forward request", "url", outURL, "error", err)
		return badGateway(err)
	}

	// Copy all inbound headers. Header filtering is a generator-side
	// concern, not a proxy concern.
	for key, values := range r.Header {
		for _, v := range values {
			out.Header.Add(key, v)
		}
	}

	resp, err := p.client.Do(out)
	if err != nil {
		metrics.ForwardFailures.Inc()
		p.logger.Warn("forwarding failed", "url", outURL, "error", err)
		return badGateway(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	if err != nil {
		metrics.ForwardFailures.Inc()
		p.logger.Warn("reading forwarded response", "url", outURL, "error", err)
		return badGateway(err)
	}

	return &capture.ResponseData{
		StatusCode: resp.StatusCode,
		Headers:    capture.FlattenHeaders(resp.Header),
		Body:       respBody,
	}
}

// acknowledge synthesizes the fixed 200 response returned when no forward
// target is configured. It carries the exchange id so callers can correlate
// captures without a live backend.
func acknowledge(exchangeID string) *capture.ResponseData {
	return &capture.ResponseData{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
			"X-Replayd-Id": exchangeID,
		},
		Body: []byte("captured " + exchangeID + "\n"),
	}
}

func badGateway(err error) *capture.ResponseData {
	return &capture.ResponseData{
		StatusCode: http.StatusBadGateway,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       []byte(fmt.Sprintf("bad gateway: %v\n", err)),
	}
}

func writeResponse(w http.ResponseWriter, resp *capture.ResponseData) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// Serve runs the proxy on addr until ctx is cancelled, then shuts down
// gracefully. A bind failure is returned immediately and is fatal to the
// caller at startup.
func (p *Proxy) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh // always http.ErrServerClosed after Shutdown
		return nil
	}
}
