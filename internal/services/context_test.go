package services_test

import (
	"context"
	"testing"

	"reelname/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithBatchID(ctx, "run-1")
	ctx = services.WithItem(ctx, "Heat.1995.mkv")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.BatchIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected batch id: %v %v", id, ok)
	}
	if item, ok := services.ItemFromContext(ctx); !ok || item != "Heat.1995.mkv" {
		t.Fatalf("unexpected item: %v %v", item, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithBatchID(ctx, "")
	ctx = services.WithItem(ctx, "")
	if _, ok := services.BatchIDFromContext(ctx); ok {
		t.Fatal("expected no batch id value")
	}
	if _, ok := services.ItemFromContext(ctx); ok {
		t.Fatal("expected no item value")
	}
}
