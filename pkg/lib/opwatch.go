package lib

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/slok/opwatch/internal/conventions"
	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/storage"
	storageio "github.com/slok/opwatch/internal/storage/io"
	"github.com/slok/opwatch/internal/storage/sqlite"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. At minimum, an empty
// Config{} will use ~/.opwatch/opwatch.db for storage and the built-in definitions.
type Config struct {
	// DBPath is the SQLite event store path.
	// Default: ~/.opwatch/opwatch.db.
	DBPath string

	// DataDir is the base directory for opwatch data.
	// Default: ~/.opwatch.
	DataDir string

	// DefinitionsFS has timeline definition files (.yaml, .yml, .toml) loaded over
	// the built-in ones.
	// Default: none, only the built-in definitions.
	DefinitionsFS fs.FS

	// PollInterval is the interval between event store polls while watching.
	// Default: 500ms.
	PollInterval time.Duration

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, conventions.DefaultDataDir)
	}

	if c.DBPath == "" {
		c.DBPath = conventions.DBPath(c.DataDir)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for tracking operations programmatically.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	repo         storage.Repository
	defs         storage.DefinitionRepository
	logger       log.Logger
	pollInterval time.Duration
	closeFn      func() error
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

	defs, err := storageio.NewDefinitionRepository(ctx, storageio.DefinitionRepositoryConfig{
		FS:     cfg.DefinitionsFS,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not load timeline definitions: %w", err))
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	return &Client{
		repo:         repo,
		defs:         defs,
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
		closeFn:      repo.Close,
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
