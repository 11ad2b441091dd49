package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/opwatch/internal/conventions"
	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/printer"
	storageio "github.com/slok/opwatch/internal/storage/io"
	"github.com/slok/opwatch/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	formatTable = "table"
	formatJSON  = "json"
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
	Debug          bool
	NoLog          bool
	NoColor        bool
	LoggerType     string
	DBPath         string
	DefinitionsDir string

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

	dataDir := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("db-path", "Path to the SQLite event store file.").Envar(conventions.EnvarPrefix + "_DB_PATH").Default(conventions.DBPath(dataDir)).StringVar(&c.DBPath)
	app.Flag("definitions-dir", "Directory with timeline definition files (.yaml, .yml, .toml) loaded over the built-in ones.").Envar(conventions.EnvarPrefix + "_DEFINITIONS_DIR").Default(conventions.DefinitionsPath(dataDir)).StringVar(&c.DefinitionsDir)

	return c
}

// newRepository returns the SQLite event store, callers must close it.
func (c *RootCommand) newRepository(ctx context.Context) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.DBPath,
		Logger: c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	return repo, nil
}

// newDefinitions returns the timeline definitions, a missing definitions dir only serves the built-in ones.
func (c *RootCommand) newDefinitions(ctx context.Context) (*storageio.DefinitionRepository, error) {
	var fsys fs.FS
	switch _, err := os.Stat(c.DefinitionsDir); {
	case err == nil:
		fsys = os.DirFS(c.DefinitionsDir)
	case errors.Is(err, fs.ErrNotExist):
		c.Logger.Debugf("Definitions dir %q missing, using built-in definitions only", c.DefinitionsDir)
	default:
		return nil, fmt.Errorf("could not read definitions dir: %w", err)
	}

	defs, err := storageio.NewDefinitionRepository(ctx, storageio.DefinitionRepositoryConfig{
		FS:     fsys,
		Logger: c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not load timeline definitions: %w", err)
	}

	return defs, nil
}

func (c *RootCommand) newPrinter(format string) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(c.Stdout)
	default:
		return printer.NewTablePrinter(c.Stdout)
	}
}

func formatFlag(cmd *kingpin.CmdClause, format *string) {
	cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(format, formatTable, formatJSON)
}
