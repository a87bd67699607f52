package commands

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/completion/openai"
	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/storage"
	"github.com/slok/stepflow/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DBPath     string
	OwnerID    string

	// Completion service flags. The engine degrades gracefully without the
	// service, but assistance and assembly need it.
	CompletionURL   string
	CompletionKey   string
	CompletionModel string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := filepath.Join(homedir.HomeDir(), ".stepflow", "stepflow.db")
	app.Flag("db-path", "Path to the SQLite database file.").Envar("STEPFLOW_DB_PATH").Default(defaultDBPath).StringVar(&c.DBPath)
	app.Flag("owner", "Owner identity used for every operation.").Envar("STEPFLOW_OWNER").Default("local").StringVar(&c.OwnerID)

	app.Flag("completion-url", "Base URL of the OpenAI-compatible completion API.").Envar("STEPFLOW_COMPLETION_URL").StringVar(&c.CompletionURL)
	app.Flag("completion-api-key", "API key of the completion service.").Envar("STEPFLOW_COMPLETION_API_KEY").StringVar(&c.CompletionKey)
	app.Flag("completion-model", "Completion model identifier.").Envar("STEPFLOW_COMPLETION_MODEL").StringVar(&c.CompletionModel)

	return c
}

// newRepository opens the SQLite repository using the global flags.
func (c *RootCommand) newRepository(ctx context.Context) (storage.Repository, error) {
	return sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.DBPath,
		Logger: c.Logger,
	})
}

// newCompletionClient creates the completion client from the global flags.
// Returns nil when no API key is configured: callers decide whether they
// can work without the service.
func (c *RootCommand) newCompletionClient() (completion.Client, error) {
	if c.CompletionKey == "" {
		return nil, nil
	}

	return openai.NewClient(openai.ClientConfig{
		BaseURL: c.CompletionURL,
		APIKey:  c.CompletionKey,
		Model:   c.CompletionModel,
		Timeout: 60 * time.Second,
		Logger:  c.Logger,
	})
}
