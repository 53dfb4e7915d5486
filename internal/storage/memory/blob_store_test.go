package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/JakeFAU/findata-ingest/internal/ingest"
)

func TestBlobStorePutGet(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	ctx := context.Background()

	stored, err := store.Put(ctx, "findata/req-1/client_0.json", []byte(`{"client_id":"c_0"}`))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if stored != "findata/req-1/client_0.json" {
		t.Fatalf("stored path = %q", stored)
	}

	data, err := store.Get(ctx, stored)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `{"client_id":"c_0"}` {
		t.Fatalf("unexpected content %q", data)
	}

	// Mutating the returned slice must not affect the stored copy.
	data[0] = 'X'
	again, err := store.Get(ctx, stored)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again[0] == 'X' {
		t.Fatal("Get returned a live reference to stored data")
	}
}

func TestBlobStoreGetMissing(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	_, err := store.Get(context.Background(), "findata/absent.json")
	if !errors.Is(err, ingest.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
