package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slok/stepflow/internal/model"
)

// CreateSteps inserts all steps of a task together, in order, in a single
// transaction.
func (r *Repository) CreateSteps(ctx context.Context, steps []model.Step) error {
	if len(steps) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("could not begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }() // Rollback is safe to call after Commit

	query := `
		INSERT INTO task_steps (
			id, task_id, step_number, title, description,
			input_type, guidance, completion_status,
			user_input_data, validation_criteria, ai_assistance_log,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return storeErr("could not prepare statement", err)
	}
	defer stmt.Close()

	for _, s := range steps {
		inputData, err := marshalDoc(s.UserInputData)
		if err != nil {
			return err
		}
		criteria, err := marshalDoc(s.ValidationCriteria)
		if err != nil {
			return err
		}
		assistLog, err := marshalAssistLog(s.AssistanceLog)
		if err != nil {
			return err
		}

		_, err = stmt.ExecContext(
			ctx,
			s.ID,
			s.TaskID,
			s.StepNumber,
			s.Title,
			s.Description,
			s.InputType,
			s.Guidance,
			s.CompletionStatus,
			inputData,
			criteria,
			assistLog,
			s.CreatedAt.Unix(),
			s.UpdatedAt.Unix(),
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed: task_steps.") {
				return fmt.Errorf("step %d of task %s already exists: %w", s.StepNumber, s.TaskID, model.ErrAlreadyExists)
			}
			return storeErr("could not insert step", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("could not commit transaction", err)
	}

	r.logger.Debugf("Created %d steps for task %s", len(steps), steps[0].TaskID)
	return nil
}

// GetStep retrieves a step by ID, owner scoped through the owning task.
func (r *Repository) GetStep(ctx context.Context, ownerID, id string) (*model.Step, error) {
	query := stepSelect + `
		WHERE s.id = ? AND t.owner_id = ?
	`

	step, err := scanStep(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("step %s: %w", id, model.ErrNotFound)
		}
		return nil, storeErr("could not query step", err)
	}

	return step, nil
}

// ListSteps returns the steps of a task ordered by step number.
func (r *Repository) ListSteps(ctx context.Context, ownerID, taskID string) ([]model.Step, error) {
	query := stepSelect + `
		WHERE s.task_id = ? AND t.owner_id = ?
		ORDER BY s.step_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, taskID, ownerID)
	if err != nil {
		return nil, storeErr("could not query steps", err)
	}
	defer rows.Close()

	var steps []model.Step
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, storeErr("could not scan row", err)
		}
		steps = append(steps, *step)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating rows", err)
	}

	return steps, nil
}

// UpdateStep replaces the mutable fields of a step in a single atomic row
// update, scoped through the owning task. Last write wins on concurrent
// updates.
func (r *Repository) UpdateStep(ctx context.Context, ownerID string, s model.Step) error {
	inputData, err := marshalDoc(s.UserInputData)
	if err != nil {
		return err
	}
	assistLog, err := marshalAssistLog(s.AssistanceLog)
	if err != nil {
		return err
	}

	query := `
		UPDATE task_steps
		SET
			completion_status = ?,
			user_input_data = ?,
			ai_assistance_log = ?,
			updated_at = ?
		WHERE id = ? AND task_id IN (SELECT id FROM tasks WHERE owner_id = ?)
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		s.CompletionStatus,
		inputData,
		assistLog,
		time.Now().UTC().Unix(),
		s.ID,
		ownerID,
	)
	if err != nil {
		return storeErr("could not update step", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeErr("could not get rows affected", err)
	}
	if rows == 0 {
		return fmt.Errorf("step %s: %w", s.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated step in repository: %s", s.ID)
	return nil
}

const stepSelect = `
	SELECT
		s.id, s.task_id, s.step_number, s.title, s.description,
		s.input_type, s.guidance, s.completion_status,
		s.user_input_data, s.validation_criteria, s.ai_assistance_log,
		s.created_at, s.updated_at
	FROM task_steps s
	JOIN tasks t ON t.id = s.task_id
`

func scanStep(sc scanner) (*model.Step, error) {
	var s model.Step
	var inputData, criteria, assistLog string
	var createdAt, updatedAt int64

	err := sc.Scan(
		&s.ID,
		&s.TaskID,
		&s.StepNumber,
		&s.Title,
		&s.Description,
		&s.InputType,
		&s.Guidance,
		&s.CompletionStatus,
		&inputData,
		&criteria,
		&assistLog,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if s.UserInputData, err = unmarshalDoc(inputData); err != nil {
		return nil, err
	}
	if s.ValidationCriteria, err = unmarshalDoc(criteria); err != nil {
		return nil, err
	}
	if s.AssistanceLog, err = unmarshalAssistLog(assistLog); err != nil {
		return nil, err
	}

	s.CreatedAt = timeFromUnix(createdAt)
	s.UpdatedAt = timeFromUnix(updatedAt)

	return &s, nil
}

func marshalAssistLog(entries []model.AssistEntry) (string, error) {
	if entries == nil {
		return "[]", nil
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("could not marshal assistance log: %w", err)
	}
	return string(b), nil
}

func unmarshalAssistLog(raw string) ([]model.AssistEntry, error) {
	if raw == "" {
		return nil, nil
	}
	var entries []model.AssistEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("could not unmarshal assistance log: %w", err)
	}
	return entries, nil
}
