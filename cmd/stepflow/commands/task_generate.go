package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stepflow/internal/app/stepgenerate"
	"github.com/slok/stepflow/internal/model"
	"github.com/slok/stepflow/internal/stepgen"
)

type TaskGenerateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID     string
	industry   string
	product    string
	goals      []string
	knownCosts []string
	format     string
}

// NewTaskGenerateCommand returns the task generate command.
func NewTaskGenerateCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *TaskGenerateCommand {
	c := &TaskGenerateCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("generate", "Decompose a task into steps.")
	c.Cmd.Arg("task-id", "Task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("industry", "Business industry for context.").StringVar(&c.industry)
	c.Cmd.Flag("product", "Product name for context.").StringVar(&c.product)
	c.Cmd.Flag("goal", "Business goal, repeatable.").StringsVar(&c.goals)
	c.Cmd.Flag("cost", "Known cost as name=value, repeatable.").StringsVar(&c.knownCosts)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c TaskGenerateCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskGenerateCommand) Run(ctx context.Context) error {
	bctx, err := c.businessContext()
	if err != nil {
		return err
	}

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	client, err := c.rootCmd.newCompletionClient()
	if err != nil {
		return fmt.Errorf("could not create completion client: %w", err)
	}

	gen, err := stepgen.NewGenerator(stepgen.GeneratorConfig{
		Completion: client,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create generator: %w", err)
	}

	svc, err := stepgenerate.NewService(stepgenerate.ServiceConfig{
		Repository: repo,
		Generator:  gen,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	steps, err := svc.Generate(ctx, stepgenerate.Request{
		OwnerID: c.rootCmd.OwnerID,
		TaskID:  c.taskID,
		Context: bctx,
	})
	if err != nil {
		return fmt.Errorf("could not generate steps: %w", err)
	}

	p := newPrinter(c.rootCmd, c.format)
	if err := p.PrintSteps(steps, model.UnlockedIndex(steps)); err != nil {
		return fmt.Errorf("could not print steps: %w", err)
	}

	return nil
}

func (c TaskGenerateCommand) businessContext() (model.BusinessContext, error) {
	bctx := model.BusinessContext{
		Industry:    c.industry,
		ProductName: c.product,
		Goals:       c.goals,
	}

	for _, kv := range c.knownCosts {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return bctx, fmt.Errorf("invalid cost %q, want name=value", kv)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return bctx, fmt.Errorf("invalid cost value %q: %w", value, err)
		}
		if bctx.KnownCosts == nil {
			bctx.KnownCosts = map[string]float64{}
		}
		bctx.KnownCosts[name] = v
	}

	return bctx, nil
}
