package sqlite

import (
	"context"

	"github.com/slok/stepflow/internal/model"
)

// CreateValidation stores one validation attempt audit record.
func (r *Repository) CreateValidation(ctx context.Context, v model.ValidationRecord) error {
	query := `
		INSERT INTO step_validations (
			id, step_id, owner_id,
			validation_type, validation_result, user_confirmation, reason,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		v.ID,
		v.StepID,
		v.OwnerID,
		v.Type,
		v.Result,
		v.UserConfirmation,
		v.Reason,
		v.CreatedAt.Unix(),
	)
	if err != nil {
		return storeErr("could not insert validation", err)
	}

	r.logger.Debugf("Created validation record for step %s: %s", v.StepID, v.Result)
	return nil
}

// ListValidations returns the validation attempts of a step, oldest first.
func (r *Repository) ListValidations(ctx context.Context, ownerID, stepID string) ([]model.ValidationRecord, error) {
	query := `
		SELECT
			id, step_id, owner_id,
			validation_type, validation_result, user_confirmation, reason,
			created_at
		FROM step_validations
		WHERE step_id = ? AND owner_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, stepID, ownerID)
	if err != nil {
		return nil, storeErr("could not query validations", err)
	}
	defer rows.Close()

	var records []model.ValidationRecord
	for rows.Next() {
		var v model.ValidationRecord
		var createdAt int64
		err := rows.Scan(
			&v.ID,
			&v.StepID,
			&v.OwnerID,
			&v.Type,
			&v.Result,
			&v.UserConfirmation,
			&v.Reason,
			&createdAt,
		)
		if err != nil {
			return nil, storeErr("could not scan row", err)
		}
		v.CreatedAt = timeFromUnix(createdAt)
		records = append(records, v)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating rows", err)
	}

	return records, nil
}
