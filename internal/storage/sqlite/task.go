package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slok/stepflow/internal/model"
)

// CreateTask creates a new task in the repository.
func (r *Repository) CreateTask(ctx context.Context, t model.Task) error {
	query := `
		INSERT INTO tasks (
			id, owner_id, title, description,
			status, progress_percentage, deliverable_status,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		t.ID,
		t.OwnerID,
		t.Title,
		t.Description,
		t.Status,
		t.ProgressPercentage,
		t.DeliverableStatus,
		t.CreatedAt.Unix(),
		t.UpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: tasks.") {
			return fmt.Errorf("task already exists: %w", model.ErrAlreadyExists)
		}
		return storeErr("could not insert task", err)
	}

	r.logger.Debugf("Created task in repository: %s", t.ID)
	return nil
}

// GetTask retrieves a task by ID, scoped to its owner.
func (r *Repository) GetTask(ctx context.Context, ownerID, id string) (*model.Task, error) {
	query := `
		SELECT
			id, owner_id, title, description,
			status, progress_percentage, deliverable_status,
			created_at, updated_at
		FROM tasks
		WHERE id = ? AND owner_id = ?
	`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
		}
		return nil, storeErr("could not query task", err)
	}

	return task, nil
}

// ListTasks returns all tasks of an owner, newest first.
func (r *Repository) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	query := `
		SELECT
			id, owner_id, title, description,
			status, progress_percentage, deliverable_status,
			created_at, updated_at
		FROM tasks
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, storeErr("could not query tasks", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, storeErr("could not scan row", err)
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating rows", err)
	}

	return tasks, nil
}

// UpdateTask updates an existing task, scoped to its owner.
func (r *Repository) UpdateTask(ctx context.Context, t model.Task) error {
	query := `
		UPDATE tasks
		SET
			title = ?,
			description = ?,
			status = ?,
			progress_percentage = ?,
			deliverable_status = ?,
			updated_at = ?
		WHERE id = ? AND owner_id = ?
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		t.Title,
		t.Description,
		t.Status,
		t.ProgressPercentage,
		t.DeliverableStatus,
		time.Now().UTC().Unix(),
		t.ID,
		t.OwnerID,
	)
	if err != nil {
		return storeErr("could not update task", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeErr("could not get rows affected", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", t.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated task in repository: %s", t.ID)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var createdAt, updatedAt int64

	err := s.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.ProgressPercentage,
		&t.DeliverableStatus,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt = timeFromUnix(createdAt)
	t.UpdatedAt = timeFromUnix(updatedAt)

	return &t, nil
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
