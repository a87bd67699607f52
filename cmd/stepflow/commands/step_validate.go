package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stepflow/internal/app/progress"
	"github.com/slok/stepflow/internal/model"
)

type StepValidateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stepID       string
	vType        string
	confirmation string
	format       string
}

// NewStepValidateCommand returns the step validate command.
func NewStepValidateCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *StepValidateCommand {
	c := &StepValidateCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("validate", "Validate the recorded data of a step.")
	c.Cmd.Arg("step-id", "Step ID.").Required().StringVar(&c.stepID)
	c.Cmd.Flag("type", "Validation type.").Default(string(model.ValidationTypeAutomatic)).
		EnumVar(&c.vType, string(model.ValidationTypeAutomatic), string(model.ValidationTypeAIAssisted), string(model.ValidationTypeManual))
	c.Cmd.Flag("confirm", "Confirmation statement for manual validation.").StringVar(&c.confirmation)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StepValidateCommand) Name() string { return c.Cmd.FullCommand() }

func (c StepValidateCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	client, err := c.rootCmd.newCompletionClient()
	if err != nil {
		return fmt.Errorf("could not create completion client: %w", err)
	}

	svc, err := progress.NewService(progress.ServiceConfig{
		Repository: repo,
		Completion: client,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Validate(ctx, progress.ValidateRequest{
		OwnerID:      c.rootCmd.OwnerID,
		StepID:       c.stepID,
		Type:         model.ValidationType(c.vType),
		Confirmation: c.confirmation,
	})
	if err != nil {
		return fmt.Errorf("could not validate step: %w", err)
	}

	p := newPrinter(c.rootCmd, c.format)
	switch {
	case res.TaskCompleted:
		return p.PrintMessage(fmt.Sprintf("Step %d validated, task completed", res.Step.StepNumber))
	case res.Passed:
		return p.PrintMessage(fmt.Sprintf("Step %d validated", res.Step.StepNumber))
	default:
		return p.PrintMessage(fmt.Sprintf("Step %d validation failed: %s", res.Step.StepNumber, res.Reason))
	}
}
