// Package dispatch wires detections, tracks, and missions together into the
// platform's hot path: every inbound detection updates a track, fans out
// over the event bus and live stream, and — for high-confidence wildfire
// detections — synthesizes and supervises a response mission end to end.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/asgard/sentinel/internal/api/realtime"
	"github.com/asgard/sentinel/internal/events"
	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/asgard/sentinel/internal/platform/observability"
	"github.com/asgard/sentinel/internal/store"
	"github.com/asgard/sentinel/internal/tracks"
	"github.com/asgard/sentinel/internal/utils"
	"github.com/google/uuid"
)

// autoMissionConfidence is the confidence threshold above which a detection
// of an autoMissionType synthesizes a response mission.
const autoMissionConfidence = 0.7

// autoMissionRadiusMeters is the response radius assigned to synthesized
// missions.
const autoMissionRadiusMeters = 200.0

var autoMissionTypes = map[string]bool{
	"fire":    true,
	"hotspot": true,
	"smoke":   true,
}

// missionRank orders statuses for forward-only transition enforcement.
// failed is reachable from any non-terminal rank but is not itself ordered
// against the others.
var missionRank = map[string]int{
	"proposed":  0,
	"pending":   1,
	"active":    2,
	"completed": 3,
}

// lifecycleActiveDelay and lifecycleCompletedDelay are the auto-dispatch
// timer offsets for synthesized missions: pending -> active after ~5s,
// active -> completed (progress 100) after another ~10s.
const (
	lifecycleActiveDelay    = 5 * time.Second
	lifecycleCompletedDelay = 10 * time.Second
)

// DetectionInput is the caller-supplied payload for a new detection.
type DetectionInput struct {
	SourceID   string
	Type       string
	Confidence float64
	Lat        float64
	Lon        float64
	Bearing    *float64
	Metadata   []byte
}

// MissionStore is the persistence surface the coordinator needs for
// missions; *store.MissionRepository satisfies it.
type MissionStore interface {
	Create(*db.Mission) error
	GetByMissionID(missionID string) (*db.Mission, error)
	UpdateStatus(missionID, status string, progress int) error
}

// DetectionStore is the persistence surface the coordinator needs for
// detections; *store.DetectionRepository satisfies it.
type DetectionStore interface {
	Create(*db.Detection) error
}

// Coordinator is the single writer for the detection -> track -> mission
// hot path.
type Coordinator struct {
	missions    MissionStore
	detections  DetectionStore
	tracks      *tracks.Store
	bus         *events.Bus
	broadcaster *realtime.Broadcaster

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator wires a dispatch coordinator over its dependencies.
func NewCoordinator(
	missions MissionStore,
	detections DetectionStore,
	trackStore *tracks.Store,
	bus *events.Bus,
	broadcaster *realtime.Broadcaster,
) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		missions:    missions,
		detections:  detections,
		tracks:      trackStore,
		bus:         bus,
		broadcaster: broadcaster,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Stop cancels any mission lifecycle timers in flight and waits for them to
// exit.
func (c *Coordinator) Stop() {
	c.cancel()
	c.wg.Wait()
}

// HandleDetection implements the detection hot path: fuse into a track,
// persist, publish and broadcast, and — for a high-confidence wildfire
// detection — synthesize and supervise a response mission.
//
// Persistence failure aborts the request with a 500; bus and broadcast
// side effects that follow a successful persist are not compensated if they
// fail, matching the propagation policy of best-effort notification.
func (c *Coordinator) HandleDetection(ctx context.Context, in DetectionInput) (*db.Detection, *db.Mission, error) {
	if in.SourceID == "" {
		return nil, nil, utils.NewAPIError("VALIDATION_ERROR", "source_id is required", 422)
	}

	trackID := c.tracks.Append(in.SourceID, tracks.Position{
		Lat: in.Lat, Lon: in.Lon, Timestamp: time.Now().UTC(),
	})

	detection := &db.Detection{
		SourceID:   in.SourceID,
		Type:       in.Type,
		Confidence: in.Confidence,
		Lat:        in.Lat,
		Lon:        in.Lon,
		Metadata:   in.Metadata,
	}
	if in.Bearing != nil {
		detection.Bearing.Float64 = *in.Bearing
		detection.Bearing.Valid = true
	}
	detection.TrackID.String = trackID
	detection.TrackID.Valid = true

	if err := c.detections.Create(detection); err != nil {
		return nil, nil, utils.WrapAPIError(err, "FAILED_TO_CREATE_DETECTION", "failed to persist detection", 500)
	}
	observability.RecordDetectionIngested(in.Type)

	detectionPayload := map[string]interface{}{
		"id":         detection.ID.String(),
		"type":       detection.Type,
		"lat":        detection.Lat,
		"lon":        detection.Lon,
		"confidence": detection.Confidence,
		"source_id":  detection.SourceID,
		"track_id":   trackID,
	}
	_ = c.bus.Publish(events.Event{Topic: "detections", Payload: detectionPayload})
	c.broadcaster.Broadcast("detection_created", detectionPayload)

	var mission *db.Mission
	if autoMissionTypes[in.Type] && in.Confidence >= autoMissionConfidence {
		m, err := c.synthesizeMission(in)
		if err != nil {
			return detection, nil, err
		}
		mission = m
	}

	return detection, mission, nil
}

func (c *Coordinator) synthesizeMission(in DetectionInput) (*db.Mission, error) {
	missionID := fmt.Sprintf("auto-%d-%s", time.Now().UTC().UnixMilli(), uuid.NewString()[:6])

	mission := &db.Mission{
		MissionID: missionID,
		Type:      "ember_damp",
		Priority:  "high",
		Status:    "pending",
		Lat:       in.Lat,
		Lon:       in.Lon,
		Radius:    autoMissionRadiusMeters,
		Progress:  0,
	}
	mission.Description.String = "AUTO: respond to detection"
	mission.Description.Valid = true

	if err := c.missions.Create(mission); err != nil {
		if err == store.ErrMissionExists {
			return nil, utils.ErrDuplicateMission
		}
		return nil, utils.WrapAPIError(err, "FAILED_TO_CREATE_MISSION", "failed to persist mission", 500)
	}

	missionPayload := map[string]interface{}{
		"id":  missionID,
		"lat": in.Lat,
		"lon": in.Lon,
	}
	_ = c.bus.Publish(events.Event{Topic: "missions", Payload: missionPayload})
	c.broadcaster.Broadcast("mission_created", missionPayload)

	observability.RecordMissionSynthesized()
	c.scheduleLifecycle(missionID)
	return mission, nil
}

// scheduleLifecycle advances a synthesized mission pending -> active ->
// completed on fixed delays, broadcasting a mission_updated event at each
// step. A timer failure (the mission row disappearing, the database being
// unreachable) is logged and the mission is left in its last persisted
// state; it does not retry.
func (c *Coordinator) scheduleLifecycle(missionID string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		select {
		case <-time.After(lifecycleActiveDelay):
		case <-c.ctx.Done():
			return
		}
		if err := c.missions.UpdateStatus(missionID, "active", 0); err != nil {
			log.Printf("[Coordinator] mission %s: advance to active failed: %v", missionID, err)
			return
		}
		c.broadcaster.Broadcast("mission_updated", map[string]interface{}{
			"id": missionID, "status": "active",
		})

		select {
		case <-time.After(lifecycleCompletedDelay):
		case <-c.ctx.Done():
			return
		}
		if err := c.missions.UpdateStatus(missionID, "completed", 100); err != nil {
			log.Printf("[Coordinator] mission %s: advance to completed failed: %v", missionID, err)
			return
		}
		c.broadcaster.Broadcast("mission_updated", map[string]interface{}{
			"id": missionID, "status": "completed", "progress": 100,
		})
	}()
}

// CreateMission persists an operator-authored mission. A client-supplied
// mission_id that already exists is reported as DuplicateMission.
func (c *Coordinator) CreateMission(mission *db.Mission) error {
	if mission.MissionID == "" {
		mission.MissionID = fmt.Sprintf("recon-%d-%s", time.Now().UTC().UnixMilli(), uuid.NewString()[:6])
	}
	if mission.Status == "" {
		mission.Status = "pending"
	}

	if err := c.missions.Create(mission); err != nil {
		if err == store.ErrMissionExists {
			return utils.ErrDuplicateMission
		}
		return utils.WrapAPIError(err, "FAILED_TO_CREATE_MISSION", "failed to persist mission", 500)
	}

	payload := map[string]interface{}{"id": mission.MissionID, "lat": mission.Lat, "lon": mission.Lon}
	_ = c.bus.Publish(events.Event{Topic: "missions", Payload: payload})
	c.broadcaster.Broadcast("mission_created", payload)
	return nil
}

// UpdateMission applies a partial status/progress update (the description
// and estimated duration are not updated by this method), rejecting any transition that moves a mission backward through the state
// machine. "failed" is reachable from any non-terminal status.
func (c *Coordinator) UpdateMission(missionID string, status *string, progress *int) (*db.Mission, error) {
	current, err := c.missions.GetByMissionID(missionID)
	if err != nil {
		if err == store.ErrMissionNotFound {
			return nil, utils.ErrNotFound
		}
		return nil, utils.WrapAPIError(err, "FAILED_TO_LOAD_MISSION", "failed to load mission", 500)
	}

	newStatus := current.Status
	if status != nil {
		if err := validateTransition(current.Status, *status); err != nil {
			return nil, err
		}
		newStatus = *status
	}

	newProgress := current.Progress
	if progress != nil {
		newProgress = *progress
	}
	if newProgress == 100 {
		newStatus = "completed"
	}

	if err := c.missions.UpdateStatus(missionID, newStatus, newProgress); err != nil {
		return nil, utils.WrapAPIError(err, "FAILED_TO_UPDATE_MISSION", "failed to update mission", 500)
	}

	current.Status = newStatus
	current.Progress = newProgress

	c.broadcaster.Broadcast("mission_updated", map[string]interface{}{
		"id": missionID, "status": newStatus, "progress": newProgress,
	})
	return current, nil
}

func validateTransition(from, to string) error {
	if to == "failed" {
		if from == "completed" || from == "failed" {
			return utils.NewAPIError("VALIDATION_ERROR", "mission already in a terminal state", 422)
		}
		return nil
	}

	fromRank, fromOK := missionRank[from]
	toRank, toOK := missionRank[to]
	if !fromOK || !toOK {
		return utils.NewAPIError("VALIDATION_ERROR", "unknown mission status", 422)
	}
	if toRank < fromRank {
		return utils.NewAPIError("VALIDATION_ERROR", "mission status cannot move backward", 422)
	}
	return nil
}
