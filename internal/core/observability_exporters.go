package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// opTally accumulates the outcome counters for a single roster operation.
type opTally struct {
	success    int64
	failure    int64
	durationMS float64
}

// ExpvarMetricsRecorder aggregates per-operation outcomes and publishes them
// through expvar, for deployments that scrape debug vars instead of running a
// Prometheus stack.
type ExpvarMetricsRecorder struct {
	name    string
	mu      sync.Mutex
	tallies map[string]*opTally
}

// ExpvarMetricsSnapshot is the value rendered under the expvar key.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

var expvarSeq atomic.Uint64

// NewExpvarMetricsRecorder publishes a recorder under name, generating a
// unique roster_service_metrics_N key when name is empty.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("roster_service_metrics_%d", expvarSeq.Add(1))
	}
	rec := &ExpvarMetricsRecorder{name: name, tallies: make(map[string]*opTally)}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar key the recorder publishes under.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tally := r.tallies[operation]
	if tally == nil {
		tally = &opTally{}
		r.tallies[operation] = tally
	}
	if success {
		tally.success++
	} else {
		tally.failure++
	}
	tally.durationMS += float64(duration) / float64(time.Millisecond)
}

// Snapshot copies the aggregated counters.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64, len(r.tallies)),
		Results:     make(map[string]map[string]int64, len(r.tallies)),
		RecordedAt:  time.Now().UTC(),
	}
	for op, tally := range r.tallies {
		snap.DurationsMS[op] = tally.durationMS
		snap.Results[op] = map[string]int64{
			"success": tally.success,
			"error":   tally.failure,
		}
	}
	return snap
}

// JSONTraceEntry is one completed span.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes completed spans as JSON lines and keeps them in
// memory so callers can inspect what ran.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer returns a tracer writing spans to w. A nil writer keeps the
// spans in memory only.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	tracer := &JSONTraceTracer{}
	if w != nil {
		tracer.enc = json.NewEncoder(w)
	}
	return tracer
}

// Entries returns the spans completed so far.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	entry := JSONTraceEntry{
		Operation: s.operation,
		Status:    "success",
		StartedAt: s.started,
		EndedAt:   time.Now().UTC(),
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}
	entry.DurationMS = float64(entry.EndedAt.Sub(entry.StartedAt)) / float64(time.Millisecond)

	s.tracer.mu.Lock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
	s.tracer.mu.Unlock()
}
