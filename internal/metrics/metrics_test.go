package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()
	ObserveArchive("acme", "stored", 1024)
	if val := testutil.ToFloat64(ingestArchivesTotal.WithLabelValues("acme", "stored")); val != 1 {
		t.Errorf("Expected ingest_archives_total to be 1, got %f", val)
	}
	if val := testutil.ToFloat64(ingestBytesTotal.WithLabelValues("acme")); val != 1024 {
		t.Errorf("Expected ingest_bytes_total to be 1024, got %f", val)
	}
}

func TestWorkerGauge(t *testing.T) {
	Init()
	before := testutil.ToFloat64(etlActiveWorkers)
	IncActiveWorkers()
	IncActiveWorkers()
	DecActiveWorkers()
	if val := testutil.ToFloat64(etlActiveWorkers); val != before+1 {
		t.Errorf("Expected gauge %f, got %f", before+1, val)
	}
}
