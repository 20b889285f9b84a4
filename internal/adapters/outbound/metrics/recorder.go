// Package metrics exports run counters in Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abdidvp/sonarfix/internal/domain"
)

const namespace = "sonarfix"

// Recorder implements domain.RunRecorder on a private Prometheus registry.
type Recorder struct {
	registry       *prometheus.Registry
	runs           *prometheus.CounterVec
	issues         prometheus.Counter
	filesProcessed prometheus.Counter
	fixesApplied   prometheus.Counter
	failures       prometheus.Counter
	filesSkipped   prometheus.Counter
}

func New() *Recorder {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed fix runs by mode.",
		}, []string{"mode"}),
		issues:         counter("issues_total", "Issues retrieved for fixing."),
		filesProcessed: counter("files_processed_total", "Files whose fixes were applied."),
		fixesApplied:   counter("fixes_applied_total", "Individual fixes applied."),
		failures:       counter("failures_total", "Files that failed proposal or application."),
		filesSkipped:   counter("files_skipped_total", "Files skipped by exclude_paths."),
	}
	r.registry.MustRegister(r.runs, r.issues, r.filesProcessed, r.fixesApplied, r.failures, r.filesSkipped)
	return r
}

// Observe adds the counters of one run.
func (r *Recorder) Observe(s *domain.RunSummary) {
	mode := "live"
	if s.DryRun {
		mode = "dry_run"
	}
	r.runs.WithLabelValues(mode).Inc()
	r.issues.Add(float64(s.TotalIssues))
	r.filesProcessed.Add(float64(s.FilesProcessed))
	r.fixesApplied.Add(float64(s.FixesApplied))
	r.failures.Add(float64(s.Failures))
	r.filesSkipped.Add(float64(s.Skipped))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile writes every counter to path for a node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
