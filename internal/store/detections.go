package store

import (
	"database/sql"
	"fmt"

	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/google/uuid"
)

// DetectionRepository handles detection persistence and track linkage.
type DetectionRepository struct {
	db *db.PostgresDB
}

// NewDetectionRepository creates a new detection repository.
func NewDetectionRepository(pgDB *db.PostgresDB) *DetectionRepository {
	return &DetectionRepository{db: pgDB}
}

// Create inserts a new detection.
func (r *DetectionRepository) Create(d *db.Detection) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	query := `
		INSERT INTO detections (id, source_id, type, confidence, lat, lon, bearing, track_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(query, d.ID, d.SourceID, d.Type, d.Confidence, d.Lat, d.Lon,
		d.Bearing, d.TrackID, d.Metadata).Scan(&d.CreatedAt)
}

// ListByTrack retrieves every detection linked to trackID, oldest first.
func (r *DetectionRepository) ListByTrack(trackID string) ([]*db.Detection, error) {
	query := `
		SELECT id, source_id, type, confidence, lat, lon, bearing, track_id, metadata, created_at
		FROM detections
		WHERE track_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections by track: %w", err)
	}
	defer rows.Close()
	return scanDetections(rows)
}

// List retrieves the most recent detections, capped at limit, optionally
// filtered to a single type.
func (r *DetectionRepository) List(detectionType string, limit int) ([]*db.Detection, error) {
	var rows *sql.Rows
	var err error
	if detectionType != "" {
		rows, err = r.db.Query(`
			SELECT id, source_id, type, confidence, lat, lon, bearing, track_id, metadata, created_at
			FROM detections WHERE type = $1 ORDER BY created_at DESC LIMIT $2
		`, detectionType, limit)
	} else {
		rows, err = r.db.Query(`
			SELECT id, source_id, type, confidence, lat, lon, bearing, track_id, metadata, created_at
			FROM detections ORDER BY created_at DESC LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()
	return scanDetections(rows)
}

func scanDetections(rows *sql.Rows) ([]*db.Detection, error) {
	var detections []*db.Detection
	for rows.Next() {
		d := &db.Detection{}
		if err := rows.Scan(&d.ID, &d.SourceID, &d.Type, &d.Confidence, &d.Lat, &d.Lon,
			&d.Bearing, &d.TrackID, &d.Metadata, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, d)
	}
	return detections, nil
}

