package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stepflow/internal/app/assemble"
)

type TaskAssembleCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	format string
}

// NewTaskAssembleCommand returns the task assemble command.
func NewTaskAssembleCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *TaskAssembleCommand {
	c := &TaskAssembleCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("assemble", "Assemble the deliverable of a finished task.")
	c.Cmd.Arg("task-id", "Task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c TaskAssembleCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskAssembleCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.newCompletionClient()
	if err != nil {
		return fmt.Errorf("could not create completion client: %w", err)
	}
	if client == nil {
		return fmt.Errorf("deliverable assembly needs the completion service, set --completion-api-key")
	}

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	svc, err := assemble.NewService(assemble.ServiceConfig{
		Repository: repo,
		Completion: client,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	deliverable, err := svc.Assemble(ctx, assemble.Request{
		OwnerID: c.rootCmd.OwnerID,
		TaskID:  c.taskID,
	})
	if err != nil {
		return fmt.Errorf("could not assemble deliverable: %w", err)
	}

	p := newPrinter(c.rootCmd, c.format)
	if err := p.PrintDeliverable(*deliverable); err != nil {
		return fmt.Errorf("could not print deliverable: %w", err)
	}

	return nil
}
