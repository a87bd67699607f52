package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stepflow/internal/app/progress"
)

type StepSkipCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stepID string
	format string
}

// NewStepSkipCommand returns the step skip command.
func NewStepSkipCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *StepSkipCommand {
	c := &StepSkipCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("skip", "Skip a step. Skipped steps unlock the next one but do not count towards progress.")
	c.Cmd.Arg("step-id", "Step ID.").Required().StringVar(&c.stepID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StepSkipCommand) Name() string { return c.Cmd.FullCommand() }

func (c StepSkipCommand) Run(ctx context.Context) error {
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

	step, err := svc.Skip(ctx, progress.SkipRequest{
		OwnerID: c.rootCmd.OwnerID,
		StepID:  c.stepID,
	})
	if err != nil {
		return fmt.Errorf("could not skip step: %w", err)
	}

	p := newPrinter(c.rootCmd, c.format)
	return p.PrintMessage(fmt.Sprintf("Step %d skipped", step.StepNumber))
}
