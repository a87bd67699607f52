package lib

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/slok/stepflow/internal/completion"
	"github.com/slok/stepflow/internal/completion/openai"
	"github.com/slok/stepflow/internal/log"
	"github.com/slok/stepflow/internal/stepgen"
	"github.com/slok/stepflow/internal/storage"
	"github.com/slok/stepflow/internal/storage/sqlite"
)

const (
	defaultDataDir = ".stepflow"
	defaultDBFile  = "stepflow.db"
	defaultOwner   = "local"
)

// CompletionConfig configures the external text-completion service.
type CompletionConfig struct {
	// BaseURL of an OpenAI-compatible chat-completions API.
	// Default: the OpenAI public API.
	BaseURL string
	// APIKey authenticates against the service (required).
	APIKey string
	// Model is the completion model identifier.
	Model string
	// Timeout bounds one completion call. Default: 60s.
	Timeout time.Duration
}

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. At minimum, an empty
// Config{} will use ~/.stepflow/stepflow.db for storage and run without the
// completion service: step generation falls back to archetypes, assistance
// and deliverable assembly return errors.
type Config struct {
	// DBPath is the SQLite database path.
	// Default: ~/.stepflow/stepflow.db.
	DBPath string

	// OwnerID is the identity every operation is scoped to.
	// Default: "local".
	OwnerID string

	// Completion configures the text-completion service. Nil disables it.
	Completion *CompletionConfig

	// Archetypes extends or replaces the builtin step archetypes.
	Archetypes []Archetype

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = filepath.Join(home, defaultDataDir, defaultDBFile)
	}

	if c.OwnerID == "" {
		c.OwnerID = defaultOwner
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for driving tasks programmatically.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	repo    storage.Repository
	client  completion.Client
	gen     *stepgen.Generator
	ownerID string
	logger  log.Logger
	closeFn func() error
}

// New creates a new SDK client backed by a SQLite database.
//
// The caller must call [Client.Close] when done to release the database
// connection. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	var client completion.Client
	if cfg.Completion != nil {
		c, err := openai.NewClient(openai.ClientConfig{
			BaseURL: cfg.Completion.BaseURL,
			APIKey:  cfg.Completion.APIKey,
			Model:   cfg.Completion.Model,
			Timeout: cfg.Completion.Timeout,
			Logger:  cfg.Logger,
		})
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("could not create completion client: %w", err)
		}
		client = c
	}

	gen, err := stepgen.NewGenerator(stepgen.GeneratorConfig{
		Completion: client,
		Overrides:  toInternalArchetypes(cfg.Archetypes),
		Logger:     cfg.Logger,
	})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("could not create generator: %w", err)
	}

	return &Client{
		repo:    repo,
		client:  client,
		gen:     gen,
		ownerID: cfg.OwnerID,
		logger:  cfg.Logger,
		closeFn: repo.Close,
	}, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// completionRequired returns the completion client or an error for
// operations that cannot run without the service.
func (c *Client) completionRequired() (completion.Client, error) {
	if c.client == nil {
		return nil, fmt.Errorf("no completion service configured: %w", ErrExternalService)
	}
	return c.client, nil
}
