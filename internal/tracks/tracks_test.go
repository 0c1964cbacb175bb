package tracks

import (
	"testing"
	"time"
)

func TestStore_AppendCreatesLazily(t *testing.T) {
	store := NewStore()

	if _, ok := store.Get("cam-1"); ok {
		t.Fatal("expected no track before first append")
	}

	trackID := store.Append("cam-1", Position{Lat: 40, Lon: -120, Timestamp: time.Now()})
	if trackID == "" {
		t.Fatal("expected non-empty track id")
	}

	track, ok := store.Get("cam-1")
	if !ok {
		t.Fatal("expected track to exist after append")
	}
	if len(track.Positions) != 1 {
		t.Errorf("Positions len = %d, want 1", len(track.Positions))
	}
}

func TestStore_AppendReusesTrackID(t *testing.T) {
	store := NewStore()
	first := store.Append("cam-1", Position{Lat: 40, Lon: -120, Timestamp: time.Now()})
	second := store.Append("cam-1", Position{Lat: 40.01, Lon: -120.01, Timestamp: time.Now()})

	if first != second {
		t.Errorf("track_id changed across appends: %v != %v", first, second)
	}

	track, _ := store.Get("cam-1")
	if len(track.Positions) != 2 {
		t.Errorf("Positions len = %d, want 2", len(track.Positions))
	}
}

func TestStore_CapsPositionHistory(t *testing.T) {
	store := NewStore()
	for i := 0; i < maxPositions+50; i++ {
		store.Append("cam-1", Position{Lat: 40, Lon: -120, Timestamp: time.Now()})
	}

	track, _ := store.Get("cam-1")
	if len(track.Positions) != maxPositions {
		t.Errorf("Positions len = %d, want %d", len(track.Positions), maxPositions)
	}
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	store := NewStore()
	store.Append("cam-1", Position{Lat: 40, Lon: -120, Timestamp: time.Now()})

	snapshot := store.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("Snapshot len = %d, want 1", len(snapshot))
	}

	store.Append("cam-1", Position{Lat: 41, Lon: -121, Timestamp: time.Now()})
	if len(snapshot[0].Positions) != 1 {
		t.Errorf("snapshot mutated after subsequent append: len = %d, want 1", len(snapshot[0].Positions))
	}
}
