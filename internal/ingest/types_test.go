package ingest

import "testing"

func TestStatusFailureClassification(t *testing.T) {
	t.Parallel()

	failed := IngestionFailed("network error during download")
	if !failed.IsFailure() {
		t.Fatalf("expected %q to classify as failure", failed)
	}
	if failed.IsTerminalSuccess() {
		t.Fatalf("failure status %q must not be terminal success", failed)
	}
	if got := string(failed); got != "ingestion-failed: network error during download" {
		t.Fatalf("unexpected status text %q", got)
	}

	etl := ETLFailed("file not found")
	if !etl.IsFailure() {
		t.Fatalf("expected %q to classify as failure", etl)
	}
}

func TestStatusTerminalSuccess(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusFilesStored, StatusETLComplete} {
		if !s.IsTerminalSuccess() {
			t.Fatalf("expected %q to be terminal success", s)
		}
	}
	for _, s := range []Status{StatusInitiated, StatusWebhookReceived} {
		if s.IsTerminalSuccess() {
			t.Fatalf("expected %q to be non-terminal", s)
		}
	}
}

func TestRecordKeyString(t *testing.T) {
	t.Parallel()

	key := RecordKey{
		RequestID:    "req-1",
		PartnerID:    "PartnerA",
		ClientID:     "c_1234",
		BusinessDate: "2026-09-01",
	}
	want := "req-1-PartnerA-c_1234-2026-09-01"
	if key.String() != want {
		t.Fatalf("key string = %q, want %q", key.String(), want)
	}
}
