package otel

import (
	"testing"
)

func TestInitMetricsDisabled(t *testing.T) {
	p, err := InitMetrics(t.Context(), Config{Disabled: true})
	if err != nil {
		t.Fatalf("InitMetrics() error = %v", err)
	}
	if p != nil {
		t.Errorf("InitMetrics() = %v, want nil", p)
	}
}

func TestInitMetricsBadCompression(t *testing.T) {
	if _, err := InitMetrics(t.Context(), Config{Endpoint: "http://localhost:4318", Compression: "zstd"}); err == nil {
		t.Error("InitMetrics() error = nil, want unsupported compression error")
	}
}

func TestAdd(t *testing.T) {
	// The default global meter provider is a no-op, so this only checks the plumbing.
	if err := Add(t.Context(), "pr.teams.requested", 2, map[string]string{"repo": "mdn/bcd", "empty": ""}); err != nil {
		t.Errorf("Add() error = %v", err)
	}
}
