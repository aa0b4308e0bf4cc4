package services_test

import (
	"context"
	"testing"

	"mailvet/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "validate")
	ctx = services.WithDataset(ctx, "abc123")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "validate" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if hash, ok := services.DatasetFromContext(ctx); !ok || hash != "abc123" {
		t.Fatalf("unexpected dataset: %v %v", hash, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithStage(ctx, "")
	ctx = services.WithDataset(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.DatasetFromContext(ctx); ok {
		t.Fatal("expected no dataset value")
	}
}
