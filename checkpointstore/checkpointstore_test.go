package checkpointstore

import (
	"context"
	"testing"
	"time"

	"github.com/lyzr-oss/statelang/value"
	"github.com/lyzr-oss/statelang/workflow"
)

func sampleSnapshot(id, execID string) workflow.CheckpointSnapshot {
	return workflow.CheckpointSnapshot{
		ID:        id,
		Name:      "milestone",
		ExecID:    execID,
		CreatedAt: time.Now(),
		Input:     value.Map{"step": float64(1)},
		Tokens:    12,
		Cost:      0.05,
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	snap := sampleSnapshot("cp-1", "run-1")
	if err := s.Save(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok := s.Get("cp-1")
	if !ok {
		t.Fatalf("expected checkpoint to be found")
	}
	if got.Name != "milestone" {
		t.Fatalf("unexpected name %q", got.Name)
	}
	latest, ok := s.Latest("run-1")
	if !ok || latest.ID != "cp-1" {
		t.Fatalf("unexpected latest %#v", latest)
	}
}

func TestMemoryStore_LatestTracksMostRecentPerRun(t *testing.T) {
	s := NewMemoryStore()
	s.Save(context.Background(), sampleSnapshot("cp-1", "run-1"))
	s.Save(context.Background(), sampleSnapshot("cp-2", "run-1"))
	latest, ok := s.Latest("run-1")
	if !ok || latest.ID != "cp-2" {
		t.Fatalf("expected cp-2 as latest, got %#v", latest)
	}
}

func TestSQLiteStore_SaveUpserts(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	snap := sampleSnapshot("cp-1", "run-1")
	if err := s.Save(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Tokens = 99
	if err := s.Save(context.Background(), snap); err != nil {
		t.Fatalf("re-save (upsert): %v", err)
	}
}
