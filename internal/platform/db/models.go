package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Sensor is a single named reading carried on an Observation.
type Sensor struct {
	Name      string    `json:"name" bson:"name"`
	Unit      string    `json:"unit" bson:"unit"`
	Value     float64   `json:"value" bson:"value"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Observation is a raw telemetry reading from a field device.
type Observation struct {
	ID        uuid.UUID `db:"id"`
	DeviceID  string    `db:"device_id"`
	Lat       float64   `db:"lat"`
	Lon       float64   `db:"lon"`
	Elevation sql.NullFloat64 `db:"elevation"`
	Sensors   []byte    `db:"sensors"` // JSON-encoded []Sensor
	Timestamp time.Time `db:"timestamp"`
	CreatedAt time.Time `db:"created_at"`
}

// Detection is a fused sighting of fire, smoke, or a hotspot reported by a
// single source (satellite pass, ground sensor, aerial asset).
type Detection struct {
	ID          uuid.UUID      `db:"id"`
	SourceID    string         `db:"source_id"`
	Type        string         `db:"type"` // free-form, e.g. fire|smoke|hotspot
	Confidence  float64        `db:"confidence"`
	Lat         float64        `db:"lat"`
	Lon         float64        `db:"lon"`
	Bearing     sql.NullFloat64 `db:"bearing"`
	TrackID     sql.NullString `db:"track_id"`
	Metadata    []byte         `db:"metadata"` // JSONB
	CreatedAt   time.Time      `db:"created_at"`
}

// Mission is a dispatch task, either operator-authored or synthesized
// automatically from a high-confidence detection.
type Mission struct {
	ID          uuid.UUID      `db:"id"`
	MissionID   string         `db:"mission_id"` // human-facing slug, e.g. "auto-<ts>-<hex>"
	Type        string         `db:"type"`
	Priority    string         `db:"priority"` // low|medium|high|critical
	Status      string         `db:"status"`   // proposed|pending|active|completed|failed
	Lat         float64        `db:"lat"`
	Lon         float64        `db:"lon"`
	Radius      float64        `db:"radius"` // meters
	Progress    int            `db:"progress"`
	Waypoints   []byte         `db:"waypoints"` // JSON []geo.Point
	Assets      []string       `db:"assets"`    // pq.StringArray
	Description sql.NullString `db:"description"`
	CreatedBy   sql.NullString `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
	StartedAt   sql.NullTime   `db:"started_at"`
	CompletedAt sql.NullTime   `db:"completed_at"`
}

// Task is lifecycle-free storage for ad-hoc operator to-dos, independent of
// the mission state machine.
type Task struct {
	ID          uuid.UUID      `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
}

// AuditLog records ambient system activity, mirrored across components.
type AuditLog struct {
	ID        int64          `db:"id"`
	Component string         `db:"component"`
	Action    string         `db:"action"`
	Metadata  []byte         `db:"metadata"` // JSONB
	CreatedAt time.Time      `db:"created_at"`
}
