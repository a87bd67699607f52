package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stepflow/internal/app/taskstatus"
)

type TaskShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	format string
}

// NewTaskShowCommand returns the task show command.
func NewTaskShowCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *TaskShowCommand {
	c := &TaskShowCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("show", "Show one task with its steps and deliverable.")
	c.Cmd.Arg("task-id", "Task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c TaskShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskShowCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	svc, err := taskstatus.NewService(taskstatus.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	st, err := svc.Status(ctx, taskstatus.Request{
		OwnerID: c.rootCmd.OwnerID,
		TaskID:  c.taskID,
	})
	if err != nil {
		return fmt.Errorf("could not get task: %w", err)
	}

	p := newPrinter(c.rootCmd, c.format)
	if err := p.PrintTaskStatus(st.Task, st.Steps, st.Deliverable); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
