// Package store provides the Postgres-backed repositories for telemetry
// observations, detections, missions, and ad-hoc tasks.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/google/uuid"
)

// ObservationRepository handles raw telemetry storage.
type ObservationRepository struct {
	db *db.PostgresDB
}

// NewObservationRepository creates a new observation repository.
func NewObservationRepository(pgDB *db.PostgresDB) *ObservationRepository {
	return &ObservationRepository{db: pgDB}
}

// Create inserts a new telemetry observation.
func (r *ObservationRepository) Create(o *db.Observation) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO telemetry (id, device_id, lat, lon, elevation, sensors, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(query, o.ID, o.DeviceID, o.Lat, o.Lon, o.Elevation, o.Sensors, o.Timestamp).
		Scan(&o.CreatedAt)
}

// ListByDevice retrieves observations for deviceID, most recent first,
// capped at limit.
func (r *ObservationRepository) ListByDevice(deviceID string, limit int) ([]*db.Observation, error) {
	query := `
		SELECT id, device_id, lat, lon, elevation, sensors, timestamp, created_at
		FROM telemetry
		WHERE device_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// Latest retrieves the most recent observation for deviceID.
func (r *ObservationRepository) Latest(deviceID string) (*db.Observation, error) {
	query := `
		SELECT id, device_id, lat, lon, elevation, sensors, timestamp, created_at
		FROM telemetry
		WHERE device_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`
	o := &db.Observation{}
	err := r.db.QueryRow(query, deviceID).Scan(
		&o.ID, &o.DeviceID, &o.Lat, &o.Lon, &o.Elevation, &o.Sensors, &o.Timestamp, &o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no telemetry recorded for device %s", deviceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest telemetry: %w", err)
	}
	return o, nil
}

// Devices lists distinct device IDs that have reported telemetry.
func (r *ObservationRepository) Devices() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT device_id FROM telemetry ORDER BY device_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan device id: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func scanObservations(rows *sql.Rows) ([]*db.Observation, error) {
	var observations []*db.Observation
	for rows.Next() {
		o := &db.Observation{}
		if err := rows.Scan(&o.ID, &o.DeviceID, &o.Lat, &o.Lon, &o.Elevation, &o.Sensors, &o.Timestamp, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, o)
	}
	return observations, nil
}

// EncodeSensors marshals a sensor slice into the JSON form stored in the
// telemetry table's sensors column.
func EncodeSensors(sensors []db.Sensor) ([]byte, error) {
	return json.Marshal(sensors)
}

// DecodeSensors unmarshals the telemetry table's sensors column.
func DecodeSensors(raw []byte) ([]db.Sensor, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var sensors []db.Sensor
	if err := json.Unmarshal(raw, &sensors); err != nil {
		return nil, fmt.Errorf("failed to decode sensors: %w", err)
	}
	return sensors, nil
}
