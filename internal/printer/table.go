package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/stepflow/internal/model"
)

// TablePrinter prints task and step information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintTaskList prints tasks in a table format.
func (t *TablePrinter) PrintTaskList(tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPROGRESS\tDELIVERABLE\tCREATED")

	for _, task := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%s\t%s\n",
			task.ID, task.Title, task.Status, task.ProgressPercentage,
			task.DeliverableStatus, TimeAgo(task.CreatedAt))
	}

	return nil
}

// PrintTaskStatus prints detailed task status with its step sequence.
func (t *TablePrinter) PrintTaskStatus(task model.Task, steps []model.Step, deliverable *model.Deliverable) error {
	fmt.Fprintf(t.writer, "ID:           %s\n", task.ID)
	fmt.Fprintf(t.writer, "Title:        %s\n", task.Title)
	if task.Description != "" {
		fmt.Fprintf(t.writer, "Description:  %s\n", task.Description)
	}
	fmt.Fprintf(t.writer, "Status:       %s\n", task.Status)
	fmt.Fprintf(t.writer, "Progress:     %d%%\n", task.ProgressPercentage)
	fmt.Fprintf(t.writer, "Deliverable:  %s\n", task.DeliverableStatus)
	fmt.Fprintf(t.writer, "Created:      %s\n", FormatTimestamp(task.CreatedAt))

	if len(steps) > 0 {
		fmt.Fprintln(t.writer)
		if err := t.PrintSteps(steps, -1); err != nil {
			return err
		}
	}

	if deliverable != nil {
		fmt.Fprintln(t.writer)
		return t.PrintDeliverable(*deliverable)
	}

	return nil
}

// PrintSteps prints the step sequence in a table format. The current step
// is marked with an arrow; pass a negative index to mark none.
func (t *TablePrinter) PrintSteps(steps []model.Step, currentIndex int) error {
	if len(steps) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, " \t#\tTITLE\tTYPE\tSTATUS")

	for i, s := range steps {
		marker := " "
		if i == currentIndex {
			marker = ">"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			marker, s.StepNumber, s.Title, s.InputType, s.CompletionStatus)
	}

	return nil
}

// PrintStep prints one step in detail.
func (t *TablePrinter) PrintStep(step model.Step) error {
	fmt.Fprintf(t.writer, "Step:         %d - %s\n", step.StepNumber, step.Title)
	fmt.Fprintf(t.writer, "ID:           %s\n", step.ID)
	if step.Description != "" {
		fmt.Fprintf(t.writer, "Description:  %s\n", step.Description)
	}
	fmt.Fprintf(t.writer, "Input type:   %s\n", step.InputType)
	fmt.Fprintf(t.writer, "Status:       %s\n", step.CompletionStatus)

	if len(step.UserInputData) > 0 {
		fmt.Fprintln(t.writer, "Data:")
		for k, v := range step.UserInputData {
			fmt.Fprintf(t.writer, "  %s: %v\n", k, v)
		}
	}

	if len(step.AssistanceLog) > 0 {
		fmt.Fprintf(t.writer, "Assistance:   %d entries, last at %s\n",
			len(step.AssistanceLog), FormatTimestamp(step.AssistanceLog[len(step.AssistanceLog)-1].Timestamp))
	}

	return nil
}

// PrintDeliverable prints the deliverable document.
func (t *TablePrinter) PrintDeliverable(deliverable model.Deliverable) error {
	fmt.Fprintf(t.writer, "%s\n", deliverable.Title)
	fmt.Fprintf(t.writer, "%s\n\n", strings.Repeat("=", len(deliverable.Title)))
	fmt.Fprintln(t.writer, deliverable.Content)
	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
