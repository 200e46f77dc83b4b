package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	m.ObserveRun("sales-order-backfill", 250*time.Millisecond, nil)
	m.ObserveRun("sales-order-backfill", time.Second, errors.New("db down"))
	m.ObserveRun("", time.Millisecond, nil)
	m.IncSkipped()

	if got := testutil.ToFloat64(m.runs.WithLabelValues("sales-order-backfill", resultSuccess)); got != 1 {
		t.Fatalf("success runs %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("sales-order-backfill", resultFailure)); got != 1 {
		t.Fatalf("failure runs %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("unknown", resultSuccess)); got != 1 {
		t.Fatalf("unlabelled job runs %v", got)
	}
	if got := testutil.ToFloat64(m.skipped); got != 1 {
		t.Fatalf("skipped %v", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess.WithLabelValues("sales-order-backfill")); got <= 0 {
		t.Fatalf("expected last success timestamp, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	hist := histogramFor(families, "cron_job_duration_seconds", "sales-order-backfill")
	if hist == nil || hist.GetSampleCount() != 2 || hist.GetSampleSum() != 1.25 {
		t.Fatalf("unexpected histogram %v", hist)
	}
}

func TestJobMetricsNilSafe(t *testing.T) {
	var m *JobMetrics
	m.ObserveRun("x", time.Second, nil)
	m.IncSkipped()
	NewJobMetrics(nil).ObserveRun("x", time.Second, errors.New("boom"))
}

func histogramFor(families []*dto.MetricFamily, name, job string) *dto.Histogram {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "job" && label.GetValue() == job {
					return metric.GetHistogram()
				}
			}
		}
	}
	return nil
}
