// Package lib provides a Go SDK for driving stepflow tasks programmatically.
//
// This package allows applications to create tasks, generate their step
// sequences and walk them to completion without shelling out to the
// stepflow CLI binary. It is useful for scripting, automation, and building
// tools on top of the engine.
//
// # Quick Start
//
// Create a client, decompose a task and work through its steps:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Create a task and generate its steps.
//	task, err := client.CreateTask(ctx, lib.CreateTaskOpts{
//	    Title: "Calculate the price of my ceramic mugs",
//	})
//	steps, err := client.GenerateSteps(ctx, task.ID, lib.BusinessContext{
//	    ProductName: "ceramic mugs",
//	})
//
//	// Record data and validate the first step.
//	client.UpdateStep(ctx, steps[0].ID, map[string]any{"text": "clay, glaze, box"})
//	client.ValidateStep(ctx, steps[0].ID, nil)
//
// # Step Ordering
//
// Steps are worked strictly in order: completed and skipped steps can be
// revisited at any time, but a step cannot be selected, updated or
// validated while an earlier step is unfinished. Selecting a locked step
// is a no-op returning the current step; updating or validating one
// returns [ErrLockedStep].
//
// # Completion Service
//
// The engine uses an external OpenAI-compatible text-completion service for
// enhanced step generation, AI-assisted validation, per-step assistance and
// deliverable assembly. Configure it with [Config].Completion. Without it
// the engine still works degraded: generation falls back to the builtin
// archetypes, and [Client.Ask] / [Client.AssembleDeliverable] return
// [ErrExternalService].
//
// # Deliverables
//
// Once every step of a task is terminal (and at least one is completed),
// [Client.AssembleDeliverable] builds the final document from the recorded
// step data. The call is idempotent and a failed attempt is retryable.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Resource does not exist or belongs to another owner.
//   - [ErrNotValid]: Invalid input or configuration.
//   - [ErrLockedStep]: The step ordering forbids the operation.
//   - [ErrTaskClosed]: The task is completed.
//   - [ErrExternalService]: The completion service failed. Retryable.
//   - [ErrStore]: The persistence layer failed. Retryable.
package lib
