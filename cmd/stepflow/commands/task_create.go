package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stepflow/internal/app/taskcreate"
	"github.com/slok/stepflow/internal/printer"
)

type TaskCreateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	title       string
	description string
	format      string
}

// NewTaskCreateCommand returns the task create command.
func NewTaskCreateCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *TaskCreateCommand {
	c := &TaskCreateCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("create", "Create a new task.")
	c.Cmd.Arg("title", "Task title.").Required().StringVar(&c.title)
	c.Cmd.Flag("description", "Task description.").StringVar(&c.description)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c TaskCreateCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskCreateCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	svc, err := taskcreate.NewService(taskcreate.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	task, err := svc.Create(ctx, taskcreate.Request{
		OwnerID:     c.rootCmd.OwnerID,
		Title:       c.title,
		Description: c.description,
	})
	if err != nil {
		return fmt.Errorf("could not create task: %w", err)
	}

	p := newPrinter(c.rootCmd, c.format)
	return p.PrintMessage(fmt.Sprintf("Task created: %s", task.ID))
}

// newPrinter selects the output printer for a command.
func newPrinter(rootCmd *RootCommand, format string) printer.Printer {
	switch format {
	case "json":
		return printer.NewJSONPrinter(rootCmd.Stdout)
	default:
		return printer.NewTablePrinter(rootCmd.Stdout)
	}
}
