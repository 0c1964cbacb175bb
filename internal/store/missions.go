package store

import (
	"database/sql"
	"fmt"

	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrMissionExists is returned by Create when mission_id already exists.
var ErrMissionExists = fmt.Errorf("mission already exists")

// ErrMissionNotFound is returned when a mission_id has no matching row.
var ErrMissionNotFound = fmt.Errorf("mission not found")

// MissionRepository handles mission persistence and state transitions.
type MissionRepository struct {
	db *db.PostgresDB
}

// NewMissionRepository creates a new mission repository.
func NewMissionRepository(pgDB *db.PostgresDB) *MissionRepository {
	return &MissionRepository{db: pgDB}
}

// Create inserts a new mission. A duplicate mission_id is reported as
// ErrMissionExists rather than the underlying driver error, so the
// dispatch coordinator can translate it into the DuplicateMission API error.
func (r *MissionRepository) Create(m *db.Mission) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	var existing int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM missions WHERE mission_id = $1`, m.MissionID).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check mission_id uniqueness: %w", err)
	}
	if existing > 0 {
		return ErrMissionExists
	}

	query := `
		INSERT INTO missions (id, mission_id, type, priority, status, lat, lon, radius,
			progress, waypoints, assets, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(query, m.ID, m.MissionID, m.Type, m.Priority, m.Status, m.Lat, m.Lon,
		m.Radius, m.Progress, m.Waypoints, pq.Array(m.Assets), m.Description, m.CreatedBy).
		Scan(&m.CreatedAt)
}

// GetByMissionID retrieves a mission by its human-facing mission_id.
func (r *MissionRepository) GetByMissionID(missionID string) (*db.Mission, error) {
	query := `
		SELECT id, mission_id, type, priority, status, lat, lon, radius, progress,
			waypoints, assets, description, created_by, created_at, started_at, completed_at
		FROM missions WHERE mission_id = $1
	`
	m := &db.Mission{}
	var assets pq.StringArray
	err := r.db.QueryRow(query, missionID).Scan(
		&m.ID, &m.MissionID, &m.Type, &m.Priority, &m.Status, &m.Lat, &m.Lon, &m.Radius,
		&m.Progress, &m.Waypoints, &assets, &m.Description, &m.CreatedBy, &m.CreatedAt,
		&m.StartedAt, &m.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query mission: %w", err)
	}
	m.Assets = []string(assets)
	return m, nil
}

// List retrieves missions, optionally filtered by status, newest first.
func (r *MissionRepository) List(status string, limit int) ([]*db.Mission, error) {
	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = r.db.Query(`
			SELECT id, mission_id, type, priority, status, lat, lon, radius, progress,
				waypoints, assets, description, created_by, created_at, started_at, completed_at
			FROM missions WHERE status = $1 ORDER BY created_at DESC LIMIT $2
		`, status, limit)
	} else {
		rows, err = r.db.Query(`
			SELECT id, mission_id, type, priority, status, lat, lon, radius, progress,
				waypoints, assets, description, created_by, created_at, started_at, completed_at
			FROM missions ORDER BY created_at DESC LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %w", err)
	}
	defer rows.Close()

	var missions []*db.Mission
	for rows.Next() {
		m := &db.Mission{}
		var assets pq.StringArray
		if err := rows.Scan(&m.ID, &m.MissionID, &m.Type, &m.Priority, &m.Status, &m.Lat, &m.Lon,
			&m.Radius, &m.Progress, &m.Waypoints, &assets, &m.Description, &m.CreatedBy,
			&m.CreatedAt, &m.StartedAt, &m.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		m.Assets = []string(assets)
		missions = append(missions, m)
	}
	return missions, nil
}

// UpdateStatus advances a mission's status and progress. The caller is
// responsible for enforcing the forward-only state machine; this method
// performs the write unconditionally.
func (r *MissionRepository) UpdateStatus(missionID, status string, progress int) error {
	var query string
	var args []interface{}
	switch status {
	case "active":
		query = `UPDATE missions SET status = $2, progress = $3, started_at = NOW() WHERE mission_id = $1`
		args = []interface{}{missionID, status, progress}
	case "completed", "failed":
		query = `UPDATE missions SET status = $2, progress = $3, completed_at = NOW() WHERE mission_id = $1`
		args = []interface{}{missionID, status, progress}
	default:
		query = `UPDATE missions SET status = $2, progress = $3 WHERE mission_id = $1`
		args = []interface{}{missionID, status, progress}
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update mission status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if rows == 0 {
		return ErrMissionNotFound
	}
	return nil
}
