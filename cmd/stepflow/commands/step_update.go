package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stepflow/internal/app/progress"
)

type StepUpdateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	stepID  string
	sets    []string
	rawJSON string
	format  string
}

// NewStepUpdateCommand returns the step update command.
func NewStepUpdateCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *StepUpdateCommand {
	c := &StepUpdateCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("update", "Record user input data on a step.")
	c.Cmd.Arg("step-id", "Step ID.").Required().StringVar(&c.stepID)
	c.Cmd.Flag("set", "Data field as key=value, repeatable. Numbers and booleans are detected.").StringsVar(&c.sets)
	c.Cmd.Flag("json", "Raw JSON document merged into the step data.").StringVar(&c.rawJSON)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StepUpdateCommand) Name() string { return c.Cmd.FullCommand() }

func (c StepUpdateCommand) Run(ctx context.Context) error {
	data, err := c.data()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("nothing to update, use --set or --json")
	}

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

	step, err := svc.Update(ctx, progress.UpdateRequest{
		OwnerID: c.rootCmd.OwnerID,
		StepID:  c.stepID,
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("could not update step: %w", err)
	}

	p := newPrinter(c.rootCmd, c.format)
	if err := p.PrintStep(*step); err != nil {
		return fmt.Errorf("could not print step: %w", err)
	}

	return nil
}

func (c StepUpdateCommand) data() (map[string]any, error) {
	data := map[string]any{}

	if c.rawJSON != "" {
		if err := json.Unmarshal([]byte(c.rawJSON), &data); err != nil {
			return nil, fmt.Errorf("invalid --json document: %w", err)
		}
	}

	for _, kv := range c.sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q, want key=value", kv)
		}
		data[key] = parseValue(value)
	}

	return data, nil
}

// parseValue keeps CLI values typed: numbers and booleans are common in
// calculation steps.
func parseValue(s string) any {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return s
}
