package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stepflow/internal/app/progress"
)

type TaskStepsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	format string
}

// NewTaskStepsCommand returns the task steps command.
func NewTaskStepsCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *TaskStepsCommand {
	c := &TaskStepsCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("steps", "List the steps of a task with the current one marked.")
	c.Cmd.Arg("task-id", "Task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c TaskStepsCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskStepsCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	svc, err := progress.NewService(progress.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	snap, err := svc.List(ctx, progress.Request{
		OwnerID: c.rootCmd.OwnerID,
		TaskID:  c.taskID,
	})
	if err != nil {
		return fmt.Errorf("could not list steps: %w", err)
	}

	p := newPrinter(c.rootCmd, c.format)
	if err := p.PrintSteps(snap.Steps, snap.CurrentIndex); err != nil {
		return fmt.Errorf("could not print steps: %w", err)
	}

	return nil
}
