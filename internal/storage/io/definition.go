package io

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/storage"
)

//go:embed defaults/*
var defaultDefinitions embed.FS

// DefinitionRepositoryConfig is the configuration for the definitions repository.
type DefinitionRepositoryConfig struct {
	// FS is an optional filesystem whose root files (.yaml, .yml, .toml) are loaded
	// over the embedded default definitions.
	FS fs.FS
	// NoDefaults disables the embedded default definitions.
	NoDefaults bool
	Logger     log.Logger
}

func (c *DefinitionRepositoryConfig) defaults() error {
	if c.FS == nil && c.NoDefaults {
		return fmt.Errorf("a filesystem is required when defaults are disabled")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Definitions"})
	return nil
}

// DefinitionRepository serves timeline definitions loaded from files.
// Definitions are loaded and validated once, they are immutable afterwards.
type DefinitionRepository struct {
	defs map[string]model.TimelineDefinition
}

var _ storage.DefinitionRepository = &DefinitionRepository{}

// NewDefinitionRepository loads the definitions and returns a new repository.
func NewDefinitionRepository(ctx context.Context, cfg DefinitionRepositoryConfig) (*DefinitionRepository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	defs := map[string]model.TimelineDefinition{}
	if !cfg.NoDefaults {
		sub, err := fs.Sub(defaultDefinitions, "defaults")
		if err != nil {
			return nil, fmt.Errorf("could not open default definitions: %w", err)
		}
		if err := loadDir(ctx, sub, defs, cfg.Logger); err != nil {
			return nil, fmt.Errorf("could not load default definitions: %w", err)
		}
	}
	if cfg.FS != nil {
		if err := loadDir(ctx, cfg.FS, defs, cfg.Logger); err != nil {
			return nil, err
		}
	}

	return &DefinitionRepository{defs: defs}, nil
}

// GetDefinition returns a definition by name.
func (r *DefinitionRepository) GetDefinition(ctx context.Context, name string) (*model.TimelineDefinition, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("definition %q: %w", name, model.ErrNotFound)
	}

	// Definitions are shared, callers get their own copy.
	def = def.Copy()
	return &def, nil
}

// ListDefinitions returns all the definitions sorted by name.
func (r *DefinitionRepository) ListDefinitions(ctx context.Context) ([]model.TimelineDefinition, error) {
	defs := make([]model.TimelineDefinition, 0, len(r.defs))
	for _, d := range r.defs {
		defs = append(defs, d.Copy())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

func loadDir(ctx context.Context, fsys fs.FS, defs map[string]model.TimelineDefinition, logger log.Logger) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("could not read definitions directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		def, ok, err := loadFile(fsys, e.Name())
		if err != nil {
			return fmt.Errorf("definition file %s: %w", e.Name(), err)
		}
		if !ok {
			logger.Debugf("Ignoring non definition file %s", e.Name())
			continue
		}

		if _, exists := defs[def.Name]; exists {
			logger.Debugf("Definition %q overridden by %s", def.Name, e.Name())
		}
		defs[def.Name] = def
	}

	return nil
}

func loadFile(fsys fs.FS, name string) (def model.TimelineDefinition, ok bool, err error) {
	var decode func([]byte, any) error
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		decode = yaml.Unmarshal
	case ".toml":
		decode = toml.Unmarshal
	default:
		return def, false, nil
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return def, false, fmt.Errorf("reading file: %w", err)
	}

	var f DefinitionFile
	if err := decode(data, &f); err != nil {
		return def, false, fmt.Errorf("parsing file: %w", err)
	}

	def = f.toModel()
	if err := def.Validate(); err != nil {
		return def, false, fmt.Errorf("invalid definition: %w", err)
	}

	return def, true, nil
}

// DefinitionFile represents the file structure of a timeline definition.
type DefinitionFile struct {
	Name         string            `yaml:"name" toml:"name"`
	Stages       []StageFile       `yaml:"stages" toml:"stages"`
	GlobalErrors []GlobalErrorFile `yaml:"global_errors" toml:"global_errors"`
}

// StageFile represents the file structure of a stage.
type StageFile struct {
	Name           string `yaml:"name" toml:"name"`
	SuccessCode    string `yaml:"success_code" toml:"success_code"`
	ErrorCode      string `yaml:"error_code" toml:"error_code"`
	PendingMessage string `yaml:"pending_message" toml:"pending_message"`
	SuccessMessage string `yaml:"success_message" toml:"success_message"`
	ErrorMessage   string `yaml:"error_message" toml:"error_message"`
}

// GlobalErrorFile represents the file structure of a global error.
type GlobalErrorFile struct {
	ErrorCode    string `yaml:"error_code" toml:"error_code"`
	ErrorMessage string `yaml:"error_message" toml:"error_message"`
}

func (f DefinitionFile) toModel() model.TimelineDefinition {
	def := model.TimelineDefinition{Name: f.Name}
	for _, s := range f.Stages {
		def.Stages = append(def.Stages, model.StageSpec{
			Name:           s.Name,
			SuccessCode:    s.SuccessCode,
			ErrorCode:      s.ErrorCode,
			PendingMessage: s.PendingMessage,
			SuccessMessage: s.SuccessMessage,
			ErrorMessage:   s.ErrorMessage,
		})
	}
	for _, g := range f.GlobalErrors {
		def.GlobalErrors = append(def.GlobalErrors, model.GlobalErrorSpec{
			ErrorCode:    g.ErrorCode,
			ErrorMessage: g.ErrorMessage,
		})
	}
	return def
}
