package chaos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/getreplayd/replayd/internal/id"
	"github.com/getreplayd/replayd/pkg/capture"
	"github.com/getreplayd/replayd/pkg/logging"
)

// ErrNoData is returned when a replay run is started against an empty
// capture snapshot. An empty set is a reportable error, not a zero report.
var ErrNoData = errors.New("no data to replay")

const (
	// DefaultReplayTimeout bounds each normal replayed call.
	DefaultReplayTimeout = 10 * time.Second

	// shortTimeout is the deliberately truncated timeout used by the
	// forced-timeout fault kind.
	shortTimeout = time.Millisecond

	// DefaultPace is the fixed inter-replay pause. Pacing throttles the
	// replay rate; it is not a correctness requirement.
	DefaultPace = 50 * time.Millisecond
)

// faultKind enumerates the closed set of injectable faults.
type faultKind int

const (
	faultDelay faultKind = iota
	faultTimeout
	faultConnFailure
)

// Snapshot provides the fully materialized capture set the engine replays,
// in store order. *capture.Store satisfies it.
type Snapshot interface {
	All() ([]*capture.Exchange, error)
}

// Options configures a replay run.
type Options struct {
	// Level selects failure rate and maximum injected delay.
	Level Level

	// TargetURL is the base URL replays are issued against. Required.
	TargetURL string

	// Rand is the source of randomness for fault selection. Inject a
	// seeded source for reproducible runs; defaults to a time-seeded one.
	Rand *rand.Rand

	// FailureRate overrides the level's rate when non-nil.
	FailureRate *float64

	// Client is the outbound HTTP client for normal replays. Defaults to
	// a client with a 10 second timeout.
	Client *http.Client

	// Pace is the inter-replay pause. Defaults to DefaultPace.
	Pace time.Duration

	// Logger for per-test progress. Defaults to a no-op logger.
	Logger *slog.Logger
}

// Engine replays a capture snapshot against a target, injecting faults for
// a level-controlled fraction of replays. Replays are strictly sequential
// in store order so that a seeded run is reproducible.
type Engine struct {
	store       Snapshot
	targetURL   string
	rng         *rand.Rand
	failureRate float64
	maxDelay    time.Duration
	client      *http.Client
	shortClient *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
	level       Level
}

// New creates an Engine over the given snapshot.
func New(store Snapshot, opts Options) *Engine {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultReplayTimeout}
	}
	pace := opts.Pace
	if pace <= 0 {
		pace = DefaultPace
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	failureRate := opts.Level.FailureRate()
	if opts.FailureRate != nil {
		failureRate = *opts.FailureRate
	}
	return &Engine{
		store:       store,
		targetURL:   opts.TargetURL,
		rng:         rng,
		failureRate: failureRate,
		maxDelay:    opts.Level.MaxDelay(),
		client:      client,
		shortClient: &http.Client{Timeout: shortTimeout},
		limiter:     rate.NewLimiter(rate.Every(pace), 1),
		logger:      logger,
		level:       opts.Level,
	}
}

// Run replays every exchange in the snapshot and returns the summary
// report. Transport failures and status mismatches are counted as failed
// tests, never fatal to the whole run.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	exchanges, err := e.store.All()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if len(exchanges) == 0 {
		return nil, ErrNoData
	}

	runID := id.Short()
	e.logger.Info("running chaos tests",
		"run", runID,
		"level", e.level,
		"tests", len(exchanges),
		"target", e.targetURL)

	report := &Report{TotalTests: len(exchanges)}

	for i, ex := range exchanges {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		e.logger.Info("replaying",
			"test", fmt.Sprintf("%d/%d", i+1, len(exchanges)),
			"method", ex.Request.Method,
			"target", ex.Request.Target)

		var replayErr error
		if e.rng.Float64() < e.failureRate {
			report.ChaosInjected++
			replayErr = e.injectFault(ctx, ex, report)
		} else {
			replayErr = e.replay(ctx, e.client, ex)
		}

		if replayErr != nil {
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s %s: %v", ex.Request.Method, ex.Request.Target, replayErr))
		} else {
			report.Passed++
		}
	}

	return report, nil
}

// injectFault picks one of the three fault kinds uniformly and applies it.
func (e *Engine) injectFault(ctx context.Context, ex *capture.Exchange, report *Report) error {
	switch faultKind(e.rng.Intn(3)) {
	case faultDelay:
		delay := time.Duration(e.rng.Int63n(int64(e.maxDelay)))
		e.logger.Warn("injecting delay", "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		return e.replay(ctx, e.client, ex)

	case faultTimeout:
		e.logger.Warn("injecting timeout")
		report.Timeouts++
		return e.replay(ctx, e.shortClient, ex)

	default:
		e.logger.Warn("simulating connection failure")
		return errors.New("simulated connection failure")
	}
}

// replay reissues the captured request against the target and checks the
// status code against the captured response, when one was recorded.
func (e *Engine) replay(ctx context.Context, client *http.Client, ex *capture.Exchange) error {
	req, err := http.NewRequestWithContext(ctx, ex.Request.Method, e.targetURL+ex.Request.Target, nil)
	if err != nil {
		return err
	}
	for key, value := range ex.Request.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	// No captured response means absence of a transport error is success.
	if ex.Response != nil && resp.StatusCode != ex.Response.StatusCode {
		return fmt.Errorf("status mismatch: expected %d, got %d", ex.Response.StatusCode, resp.StatusCode)
	}
	return nil
}
