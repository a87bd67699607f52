// Package assist is the per-step AI assistance channel: contextual help
// scoped to one step, persisted as an append-only conversation log.
package assist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/feed"
	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/storage"
)

// historyWindow is how many recent log entries travel with each question.
const historyWindow = 4

// apologyReply is returned when the completion service is unreachable. Not
// persisted in the log: the next successful exchange should not carry it.
const apologyReply = "I am sorry, I cannot help you right now. Please try again in a moment, your question has been saved."

// ServiceConfig is the configuration for the assistance service.
type ServiceConfig struct {
	Repository storage.Repository
	Completion completion.Client
	Notifier   feed.Notifier
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Completion == nil {
		return fmt.Errorf("completion client is required")
	}
	if c.Notifier == nil {
		c.Notifier = feed.Noop
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Assist"})
	return nil
}

// Service handles step assistance business logic.
type Service struct {
	repo     storage.Repository
	client   completion.Client
	notifier feed.Notifier
	logger   log.Logger
}

// NewService creates a new assistance service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:     cfg.Repository,
		client:   cfg.Completion,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}, nil
}

// Request represents the assistance question parameters.
type Request struct {
	OwnerID string
	StepID  string
	Message string
}

// Response is the assistant's answer.
type Response struct {
	Reply string
	// Degraded reports that the completion service failed and Reply is the
	// canned apology. The question was still logged.
	Degraded bool
}

// Ask answers a question about one step using the step context and the
// recent conversation. Question and answer are appended to the step's
// persisted log; when the completion service fails only the question is
// persisted and a canned apology is returned with Degraded set.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required: %w", model.ErrNotValid)
	}

	step, err := s.repo.GetStep(ctx, req.OwnerID, req.StepID)
	if err != nil {
		return nil, fmt.Errorf("could not get step: %w", err)
	}

	task, err := s.repo.GetTask(ctx, req.OwnerID, step.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}
	if task.Status == model.TaskStatusCompleted {
		return nil, fmt.Errorf("task %s is completed: %w", task.ID, model.ErrTaskClosed)
	}

	msgs := historyMessages(step.AssistanceLog)
	msgs = append(msgs, completion.Message{Role: completion.RoleUser, Content: req.Message})

	now := time.Now().UTC()
	question := model.AssistEntry{Timestamp: now, Message: req.Message, Type: model.AssistEntryQuestion}

	reply, err := s.client.Complete(ctx, assistSystemPrompt(*task, *step), msgs)
	if err != nil {
		s.logger.Warningf("Assistance completion failed for step %s: %s", step.ID, err)

		// Keep the question so the user does not have to retype it.
		step.AssistanceLog = append(step.AssistanceLog, question)
		step.UpdatedAt = now
		if err := s.repo.UpdateStep(ctx, req.OwnerID, *step); err != nil {
			return nil, fmt.Errorf("could not save assistance log: %w", err)
		}

		return &Response{Reply: apologyReply, Degraded: true}, nil
	}

	step.AssistanceLog = append(step.AssistanceLog,
		question,
		model.AssistEntry{Timestamp: time.Now().UTC(), Message: reply, Type: model.AssistEntryResponse},
	)
	step.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateStep(ctx, req.OwnerID, *step); err != nil {
		return nil, fmt.Errorf("could not save assistance log: %w", err)
	}

	s.notifier.Publish(feed.Event{
		Kind:    feed.EventStepUpdated,
		OwnerID: req.OwnerID,
		TaskID:  task.ID,
		StepID:  step.ID,
	})

	return &Response{Reply: reply}, nil
}

// historyMessages converts the tail of the assistance log into completion
// messages.
func historyMessages(entries []model.AssistEntry) []completion.Message {
	if len(entries) > historyWindow {
		entries = entries[len(entries)-historyWindow:]
	}

	msgs := make([]completion.Message, 0, len(entries)+1)
	for _, e := range entries {
		role := completion.RoleUser
		if e.Type == model.AssistEntryResponse {
			role = completion.RoleAssistant
		}
		msgs = append(msgs, completion.Message{Role: role, Content: e.Message})
	}
	return msgs
}

func assistSystemPrompt(task model.Task, step model.Step) string {
	var b strings.Builder
	b.WriteString("You are a business mentor for independent cultural creators. Help the user finish the CURRENT STEP of their task. Be specific and practical, answer in the user's language, keep answers short.\n\n")
	fmt.Fprintf(&b, "TASK: %s\n", task.Title)
	fmt.Fprintf(&b, "CURRENT STEP %d: %s\n", step.StepNumber, step.Title)
	fmt.Fprintf(&b, "STEP DESCRIPTION: %s\n", step.Description)
	fmt.Fprintf(&b, "EXPECTED INPUT TYPE: %s\n", step.InputType)
	if step.Guidance != "" {
		fmt.Fprintf(&b, "MENTOR NOTES: %s\n", step.Guidance)
	}
	if len(step.UserInputData) > 0 {
		fmt.Fprintf(&b, "DATA RECORDED SO FAR: %v\n", step.UserInputData)
	}
	return b.String()
}
