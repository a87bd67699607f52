package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/slok/stepflow/internal/api"
	"github.com/slok/stepflow/internal/app/assemble"
	"github.com/slok/stepflow/internal/app/assist"
	"github.com/slok/stepflow/internal/app/progress"
	"github.com/slok/stepflow/internal/app/stepgenerate"
	"github.com/slok/stepflow/internal/app/taskcreate"
	"github.com/slok/stepflow/internal/app/tasklist"
	"github.com/slok/stepflow/internal/app/taskstatus"
	"github.com/slok/stepflow/internal/feed"
	"github.com/slok/stepflow/internal/stepgen"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddr     string
	archetypesFile string
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Run the HTTP API server.")
	c.Cmd.Flag("listen-addr", "Address the API listens on.").Default(":8080").StringVar(&c.listenAddr)
	c.Cmd.Flag("archetypes-file", "YAML file with archetype overrides.").StringVar(&c.archetypesFile)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}

	client, err := c.rootCmd.newCompletionClient()
	if err != nil {
		return fmt.Errorf("could not create completion client: %w", err)
	}
	if client == nil {
		logger.Warningf("No completion service configured, assistance and assembly will be unavailable")
	}

	var overrides []stepgen.Archetype
	if c.archetypesFile != "" {
		dir, file := filepath.Split(c.archetypesFile)
		if dir == "" {
			dir = "."
		}
		overrides, err = stepgen.LoadArchetypes(os.DirFS(dir), file)
		if err != nil {
			return fmt.Errorf("could not load archetype overrides: %w", err)
		}
	}

	gen, err := stepgen.NewGenerator(stepgen.GeneratorConfig{
		Completion: client,
		Overrides:  overrides,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create generator: %w", err)
	}

	hub, err := feed.NewHub(feed.HubConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create feed hub: %w", err)
	}

	taskCreateSvc, err := taskcreate.NewService(taskcreate.ServiceConfig{Repository: repo, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create task create service: %w", err)
	}
	taskListSvc, err := tasklist.NewService(tasklist.ServiceConfig{Repository: repo, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create task list service: %w", err)
	}
	taskStatusSvc, err := taskstatus.NewService(taskstatus.ServiceConfig{Repository: repo, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create task status service: %w", err)
	}
	stepGenerateSvc, err := stepgenerate.NewService(stepgenerate.ServiceConfig{
		Repository: repo,
		Generator:  gen,
		Notifier:   hub,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create step generate service: %w", err)
	}

	var worker *assemble.Worker
	var assembleSvc *assemble.Service
	var assistSvc *assist.Service
	if client != nil {
		assembleSvc, err = assemble.NewService(assemble.ServiceConfig{
			Repository: repo,
			Completion: client,
			Notifier:   hub,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("could not create assemble service: %w", err)
		}
		worker, err = assemble.NewWorker(assemble.WorkerConfig{Service: assembleSvc, Logger: logger})
		if err != nil {
			return fmt.Errorf("could not create assembly worker: %w", err)
		}
		assistSvc, err = assist.NewService(assist.ServiceConfig{
			Repository: repo,
			Completion: client,
			Notifier:   hub,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("could not create assist service: %w", err)
		}
	}

	progressCfg := progress.ServiceConfig{
		Repository: repo,
		Completion: client,
		Notifier:   hub,
		Logger:     logger,
	}
	if worker != nil {
		progressCfg.Assembly = worker
	}
	progressSvc, err := progress.NewService(progressCfg)
	if err != nil {
		return fmt.Errorf("could not create progress service: %w", err)
	}

	server, err := api.NewServer(api.ServerConfig{
		ListenAddr:   c.listenAddr,
		TaskCreate:   taskCreateSvc,
		TaskList:     taskListSvc,
		TaskStatus:   taskStatusSvc,
		StepGenerate: stepGenerateSvc,
		Progress:     progressSvc,
		Assist:       assistSvc,
		Assemble:     assembleSvc,
		Hub:          hub,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("could not create API server: %w", err)
	}

	var g run.Group

	// API server.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error { return server.Run(ctx) },
			func(_ error) { cancel() },
		)
	}

	// Assembly worker.
	if worker != nil {
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error { return worker.Run(ctx) },
			func(_ error) { cancel() },
		)
	}

	return g.Run()
}
