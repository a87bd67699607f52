package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/feed"
	"github.com/slok/stepflow/internal/model"
)

// ValidateRequest represents the step validation parameters.
type ValidateRequest struct {
	OwnerID string
	StepID  string
	// Type defaults to automatic.
	Type model.ValidationType
	// Confirmation is the user statement backing a manual validation.
	Confirmation string
}

// ValidateResponse is the outcome of a validation attempt. A failed
// validation is a regular response, not an error.
type ValidateResponse struct {
	Step   model.Step
	Passed bool
	Reason string
	// TaskCompleted reports whether this validation finished the whole task.
	TaskCompleted bool
}

// Validate evaluates the step's recorded data against its criteria and, on
// success, marks the step completed and rolls progress up into the task.
// Every attempt leaves a validation record. Re-validating an
// already-completed step succeeds without side effects.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (*ValidateResponse, error) {
	task, steps, idx, err := s.loadStep(ctx, req.OwnerID, req.StepID)
	if err != nil {
		return nil, err
	}
	step := steps[idx]

	if step.CompletionStatus == model.StepStatusCompleted {
		return &ValidateResponse{
			Step:          step,
			Passed:        true,
			TaskCompleted: task.Status == model.TaskStatusCompleted,
		}, nil
	}

	if task.Status == model.TaskStatusCompleted {
		return nil, fmt.Errorf("task %s is completed: %w", task.ID, model.ErrTaskClosed)
	}
	if !model.CanSelect(steps, idx) {
		return nil, fmt.Errorf("step %d of task %s is not reachable yet: %w", step.StepNumber, task.ID, model.ErrLockedStep)
	}
	if !step.CompletionStatus.CanBecome(model.StepStatusCompleted) {
		return nil, fmt.Errorf("step %s cannot go from %s to completed: %w", step.ID, step.CompletionStatus, model.ErrNotValid)
	}

	vType := req.Type
	if vType == "" {
		vType = model.ValidationTypeAutomatic
	}
	if !vType.Valid() {
		return nil, fmt.Errorf("unknown validation type %q: %w", req.Type, model.ErrNotValid)
	}

	passed, reason := s.evaluate(ctx, step, vType, req.Confirmation)

	record := model.ValidationRecord{
		ID:               ulid.Make().String(),
		StepID:           step.ID,
		OwnerID:          req.OwnerID,
		Type:             vType,
		Result:           model.ValidationResultFailed,
		UserConfirmation: req.Confirmation,
		Reason:           reason,
		CreatedAt:        time.Now().UTC(),
	}
	if passed {
		record.Result = model.ValidationResultPassed
	}
	if err := s.repo.CreateValidation(ctx, record); err != nil {
		return nil, fmt.Errorf("could not save validation record: %w", err)
	}

	s.notifier.Publish(feed.Event{
		Kind:    feed.EventStepValidated,
		OwnerID: req.OwnerID,
		TaskID:  task.ID,
		StepID:  step.ID,
	})

	if !passed {
		s.logger.Debugf("Validation of step %s failed: %s", step.ID, reason)
		return &ValidateResponse{Step: step, Passed: false, Reason: reason}, nil
	}

	step.CompletionStatus = model.StepStatusCompleted
	step.UpdatedAt = record.CreatedAt
	if err := s.repo.UpdateStep(ctx, req.OwnerID, step); err != nil {
		return nil, fmt.Errorf("could not complete step: %w", err)
	}
	steps[idx] = step

	s.logger.Infof("Step %d of task %s completed", step.StepNumber, task.ID)

	if model.TaskFinished(steps) {
		if err := s.finishTask(ctx, *task, steps); err != nil {
			return nil, err
		}
		return &ValidateResponse{Step: step, Passed: true, TaskCompleted: true}, nil
	}

	task.ProgressPercentage = model.Progress(steps)
	task.UpdatedAt = step.UpdatedAt
	if err := s.repo.UpdateTask(ctx, *task); err != nil {
		return nil, fmt.Errorf("could not update task progress: %w", err)
	}

	return &ValidateResponse{Step: step, Passed: true}, nil
}

// evaluate runs one validation attempt. It never errors: every problem with
// the user data is a failed attempt with a reason.
func (s *Service) evaluate(ctx context.Context, step model.Step, vType model.ValidationType, confirmation string) (bool, string) {
	if vType == model.ValidationTypeManual {
		if strings.TrimSpace(confirmation) == "" {
			return false, "manual validation needs a confirmation statement"
		}
		return true, ""
	}

	in, err := model.NormalizeInput(step.InputType, step.UserInputData)
	if err != nil {
		return false, err.Error()
	}

	criteria, err := model.ParseCriteria(step.ValidationCriteria)
	if err != nil {
		return false, err.Error()
	}

	passed, reason := criteria.Evaluate(in, step.UserInputData)
	if !passed {
		return false, reason
	}

	if vType == model.ValidationTypeAIAssisted && s.client != nil {
		ok, aiReason, err := s.aiJudgement(ctx, step)
		if err != nil {
			// Degraded: criteria passed, the reviewer is unreachable.
			s.logger.Warningf("AI-assisted validation degraded to automatic for step %s: %s", step.ID, err)
			return true, ""
		}
		if !ok {
			return false, aiReason
		}
	}

	return true, ""
}

const judgementSystemPrompt = `You review one step of a business task completed by an independent creator. Judge whether the recorded data genuinely fulfills the step, not just formally.

Respond with exactly one line: "PASS" or "FAIL: <short reason in the user's language>".`

// aiJudgement asks the completion service to review the step data beyond
// the declarative criteria.
func (s *Service) aiJudgement(ctx context.Context, step model.Step) (bool, string, error) {
	user := fmt.Sprintf("STEP: %s\nDESCRIPTION: %s\nEXPECTED INPUT TYPE: %s\nRECORDED DATA:\n%v",
		step.Title, step.Description, step.InputType, step.UserInputData)

	raw, err := s.client.Complete(ctx, judgementSystemPrompt, []completion.Message{
		{Role: completion.RoleUser, Content: user},
	})
	if err != nil {
		return false, "", err
	}

	verdict := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(verdict, "PASS"):
		return true, "", nil
	case strings.HasPrefix(verdict, "FAIL"):
		reason := strings.TrimSpace(strings.TrimPrefix(verdict, "FAIL"))
		reason = strings.TrimSpace(strings.TrimPrefix(reason, ":"))
		if reason == "" {
			reason = "the reviewer rejected the step data"
		}
		return false, reason, nil
	}

	return false, "", fmt.Errorf("unusable verdict %q: %w", verdict, model.ErrExternalService)
}
