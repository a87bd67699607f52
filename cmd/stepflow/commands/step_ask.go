package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stepflow/internal/app/assist"
)

type StepAskCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stepID  string
	message []string
	format  string
}

// NewStepAskCommand returns the step ask command.
func NewStepAskCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *StepAskCommand {
	c := &StepAskCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("ask", "Ask the step assistant a question.")
	c.Cmd.Arg("step-id", "Step ID.").Required().StringVar(&c.stepID)
	c.Cmd.Arg("message", "The question.").Required().StringsVar(&c.message)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StepAskCommand) Name() string { return c.Cmd.FullCommand() }

func (c StepAskCommand) Run(ctx context.Context) error {
	client, err := c.rootCmd.newCompletionClient()
	if err != nil {
		return fmt.Errorf("could not create completion client: %w", err)
	}
	if client == nil {
		return fmt.Errorf("step assistance needs the completion service, set --completion-api-key")
	}

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	svc, err := assist.NewService(assist.ServiceConfig{
		Repository: repo,
		Completion: client,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Ask(ctx, assist.Request{
		OwnerID: c.rootCmd.OwnerID,
		StepID:  c.stepID,
		Message: strings.Join(c.message, " "),
	})
	if err != nil {
		return fmt.Errorf("could not ask assistant: %w", err)
	}

	p := newPrinter(c.rootCmd, c.format)
	return p.PrintMessage(res.Reply)
}
