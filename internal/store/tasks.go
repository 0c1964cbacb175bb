package store

import (
	"fmt"

	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/google/uuid"
)

// TaskRepository handles ad-hoc operator to-do persistence, independent of
// the mission lifecycle.
type TaskRepository struct {
	db *db.PostgresDB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(pgDB *db.PostgresDB) *TaskRepository {
	return &TaskRepository{db: pgDB}
}

// Create inserts a new task.
func (r *TaskRepository) Create(t *db.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO tasks (id, title, description, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(query, t.ID, t.Title, t.Description).Scan(&t.CreatedAt)
}

// List retrieves tasks, newest first, capped at limit.
func (r *TaskRepository) List(limit int) ([]*db.Task, error) {
	rows, err := r.db.Query(`
		SELECT id, title, description, created_at FROM tasks ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*db.Task
	for rows.Next() {
		t := &db.Task{}
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
