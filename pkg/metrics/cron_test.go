package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsCountsRunsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "low-stock-alerts"
	m.ObserveDuration(job, 250*time.Millisecond)
	m.IncSuccess(job)
	m.IncSuccess(job)
	m.IncFailure(job)
	m.IncFailure("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	runs := map[string]float64{}
	for _, metric := range findMetricFamily(mfs, "pos_cron_job_runs_total").GetMetric() {
		var jobName, result string
		for _, l := range metric.GetLabel() {
			switch l.GetName() {
			case "job":
				jobName = l.GetValue()
			case "result":
				result = l.GetValue()
			}
		}
		runs[jobName+"/"+result] = metric.GetCounter().GetValue()
	}
	want := map[string]float64{
		job + "/success":  2,
		job + "/failure":  1,
		"unknown/failure": 1,
	}
	for key, v := range want {
		if runs[key] != v {
			t.Fatalf("runs[%s] = %f, want %f (all=%v)", key, runs[key], v, runs)
		}
	}

	if got, err := fetchHistogramSum(mfs, "pos_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRegistererIsSafe(t *testing.T) {
	NewCronJobMetrics(nil).IncSuccess("x")
	var cron *CronJobMetrics
	cron.IncFailure("x")
	cron.ObserveDuration("x", time.Second)
	NewPlacementMetrics(nil).Observe(OutcomePlaced, time.Millisecond)
	var m *PlacementMetrics
	m.IncInsufficientStock("1")
}

func TestPlacementMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlacementMetrics(reg)
	m.Observe(OutcomePlaced, 20*time.Millisecond)
	m.Observe(OutcomePlaced, 30*time.Millisecond)
	m.Observe("INSUFFICIENT_STOCK", 5*time.Millisecond)
	m.IncInsufficientStock("7")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "pos_orders_placements_total", "outcome", OutcomePlaced); err != nil || got != 2 {
		t.Fatalf("expected 2 placed, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "pos_orders_placements_total", "outcome", "INSUFFICIENT_STOCK"); err != nil || got != 1 {
		t.Fatalf("expected 1 rejection, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "pos_inventory_insufficient_stock_total", "ingredient_id", "7"); err != nil || got != 1 {
		t.Fatalf("expected 1 shortfall, got %f err=%v", got, err)
	}
}

func TestPlacementMetricsLabelsBlankValuesUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlacementMetrics(reg)
	m.Observe("", time.Millisecond)
	m.IncInsufficientStock("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "pos_orders_placements_total", "outcome", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected 1 unknown outcome, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "pos_inventory_insufficient_stock_total", "ingredient_id", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected 1 unknown ingredient, got %f err=%v", got, err)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
