package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/slok/stepflow/internal/model"
)

// CreateDeliverable stores the final deliverable of a task. The task_id
// unique constraint enforces at most one deliverable per task.
func (r *Repository) CreateDeliverable(ctx context.Context, d model.Deliverable) error {
	query := `
		INSERT INTO deliverables (id, task_id, owner_id, title, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		d.ID,
		d.TaskID,
		d.OwnerID,
		d.Title,
		d.Content,
		d.CreatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: deliverables.") {
			return fmt.Errorf("deliverable for task %s: %w", d.TaskID, model.ErrAlreadyExists)
		}
		return storeErr("could not insert deliverable", err)
	}

	r.logger.Debugf("Created deliverable for task %s", d.TaskID)
	return nil
}

// GetDeliverableByTask returns the deliverable of a task if it exists.
func (r *Repository) GetDeliverableByTask(ctx context.Context, ownerID, taskID string) (*model.Deliverable, error) {
	query := `
		SELECT id, task_id, owner_id, title, content, created_at
		FROM deliverables
		WHERE task_id = ? AND owner_id = ?
	`

	var d model.Deliverable
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, taskID, ownerID).Scan(
		&d.ID,
		&d.TaskID,
		&d.OwnerID,
		&d.Title,
		&d.Content,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("deliverable for task %s: %w", taskID, model.ErrNotFound)
		}
		return nil, storeErr("could not query deliverable", err)
	}
	d.CreatedAt = timeFromUnix(createdAt)

	return &d, nil
}
