package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/asgard/sentinel/internal/api/realtime"
	"github.com/asgard/sentinel/internal/events"
	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/asgard/sentinel/internal/store"
	"github.com/asgard/sentinel/internal/tracks"
	"github.com/google/uuid"
)

type fakeMissionStore struct {
	mu       sync.Mutex
	byID     map[string]*db.Mission
	createErr error
}

func newFakeMissionStore() *fakeMissionStore {
	return &fakeMissionStore{byID: make(map[string]*db.Mission)}
}

func (f *fakeMissionStore) Create(m *db.Mission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byID[m.MissionID]; exists {
		return store.ErrMissionExists
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	f.byID[m.MissionID] = &cp
	return nil
}

func (f *fakeMissionStore) GetByMissionID(missionID string) (*db.Mission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[missionID]
	if !ok {
		return nil, store.ErrMissionNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMissionStore) UpdateStatus(missionID, status string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[missionID]
	if !ok {
		return store.ErrMissionNotFound
	}
	m.Status = status
	m.Progress = progress
	return nil
}

type fakeDetectionStore struct {
	mu      sync.Mutex
	created []*db.Detection
}

func (f *fakeDetectionStore) Create(d *db.Detection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.created = append(f.created, d)
	return nil
}

func newHarness() (*Coordinator, *fakeMissionStore, *fakeDetectionStore, *realtime.Broadcaster) {
	missions := newFakeMissionStore()
	detections := &fakeDetectionStore{}
	bus := events.NewBus()
	bus.Start()
	broadcaster := realtime.NewBroadcaster()
	go broadcaster.Start()

	coord := NewCoordinator(missions, detections, tracks.NewStore(), bus, broadcaster)
	return coord, missions, detections, broadcaster
}

func TestHandleDetection_BelowThresholdNoMission(t *testing.T) {
	coord, _, detections, _ := newHarness()
	defer coord.Stop()

	_, mission, err := coord.HandleDetection(nil, DetectionInput{
		SourceID: "cam-1", Type: "fire", Confidence: 0.5, Lat: 40, Lon: -120,
	})
	if err != nil {
		t.Fatalf("HandleDetection returned error: %v", err)
	}
	if mission != nil {
		t.Error("expected no mission for sub-threshold confidence")
	}
	if len(detections.created) != 1 {
		t.Errorf("created %d detections, want 1", len(detections.created))
	}
}

func TestHandleDetection_AboveThresholdSynthesizesMission(t *testing.T) {
	coord, missions, _, _ := newHarness()
	defer coord.Stop()

	_, mission, err := coord.HandleDetection(nil, DetectionInput{
		SourceID: "cam-1", Type: "fire", Confidence: 0.9, Lat: 40, Lon: -120,
	})
	if err != nil {
		t.Fatalf("HandleDetection returned error: %v", err)
	}
	if mission == nil {
		t.Fatal("expected a synthesized mission for high-confidence fire detection")
	}
	if mission.Status != "pending" {
		t.Errorf("Status = %q, want pending", mission.Status)
	}
	if mission.Priority != "high" {
		t.Errorf("Priority = %q, want high", mission.Priority)
	}

	missions.mu.Lock()
	_, ok := missions.byID[mission.MissionID]
	missions.mu.Unlock()
	if !ok {
		t.Error("mission was not persisted")
	}
}

func TestHandleDetection_NonWildfireTypeNoMission(t *testing.T) {
	coord, _, _, _ := newHarness()
	defer coord.Stop()

	_, mission, err := coord.HandleDetection(nil, DetectionInput{
		SourceID: "cam-1", Type: "vehicle", Confidence: 0.99, Lat: 40, Lon: -120,
	})
	if err != nil {
		t.Fatalf("HandleDetection returned error: %v", err)
	}
	if mission != nil {
		t.Error("expected no mission for non-wildfire detection type")
	}
}

func TestUpdateMission_RejectsBackwardTransition(t *testing.T) {
	coord, missions, _, _ := newHarness()
	defer coord.Stop()

	missions.byID["m-1"] = &db.Mission{MissionID: "m-1", Status: "active"}

	status := "pending"
	_, err := coord.UpdateMission("m-1", &status, nil)
	if err == nil {
		t.Fatal("expected error moving active -> pending")
	}
}

func TestUpdateMission_AllowsFailedFromAnyNonTerminalState(t *testing.T) {
	coord, missions, _, _ := newHarness()
	defer coord.Stop()

	missions.byID["m-1"] = &db.Mission{MissionID: "m-1", Status: "active"}

	status := "failed"
	updated, err := coord.UpdateMission("m-1", &status, nil)
	if err != nil {
		t.Fatalf("UpdateMission returned error: %v", err)
	}
	if updated.Status != "failed" {
		t.Errorf("Status = %q, want failed", updated.Status)
	}
}

func TestUpdateMission_ProgressOneHundredForcesCompleted(t *testing.T) {
	coord, missions, _, _ := newHarness()
	defer coord.Stop()

	missions.byID["m-1"] = &db.Mission{MissionID: "m-1", Status: "active", Progress: 50}

	progress := 100
	updated, err := coord.UpdateMission("m-1", nil, &progress)
	if err != nil {
		t.Fatalf("UpdateMission returned error: %v", err)
	}
	if updated.Status != "completed" {
		t.Errorf("Status = %q, want completed", updated.Status)
	}
}

func TestCreateMission_DuplicateMissionIDRejected(t *testing.T) {
	coord, _, _, _ := newHarness()
	defer coord.Stop()

	m1 := &db.Mission{MissionID: "fixed-id", Type: "surveillance", Priority: "medium"}
	if err := coord.CreateMission(m1); err != nil {
		t.Fatalf("first CreateMission returned error: %v", err)
	}

	m2 := &db.Mission{MissionID: "fixed-id", Type: "surveillance", Priority: "medium"}
	err := coord.CreateMission(m2)
	if err == nil {
		t.Fatal("expected DuplicateMission error on second create with same mission_id")
	}
}

func TestHandleDetection_RequiresSourceID(t *testing.T) {
	coord, _, _, _ := newHarness()
	defer coord.Stop()

	_, _, err := coord.HandleDetection(nil, DetectionInput{Type: "fire", Confidence: 0.9})
	if err == nil {
		t.Fatal("expected validation error for missing source_id")
	}
}

func TestScheduleLifecycle_AdvancesStatusOverTime(t *testing.T) {
	coord, missions, _, _ := newHarness()
	defer coord.Stop()

	missions.byID["lifecycle-test"] = &db.Mission{MissionID: "lifecycle-test", Status: "pending"}
	coord.scheduleLifecycle("lifecycle-test")

	deadline := time.Now().Add(lifecycleActiveDelay + 2*time.Second)
	for time.Now().Before(deadline) {
		missions.mu.Lock()
		status := missions.byID["lifecycle-test"].Status
		missions.mu.Unlock()
		if status == "active" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("mission never advanced to active within the expected window")
}
