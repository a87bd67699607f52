package printer

import "github.com/slok/stepflow/internal/model"

// Printer knows how to print task and step information in different formats.
type Printer interface {
	PrintTaskList(tasks []model.Task) error
	PrintTaskStatus(task model.Task, steps []model.Step, deliverable *model.Deliverable) error
	PrintSteps(steps []model.Step, currentIndex int) error
	PrintStep(step model.Step) error
	PrintDeliverable(deliverable model.Deliverable) error
	PrintMessage(msg string) error
}
