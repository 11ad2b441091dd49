package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default opwatch data directory name (relative to home).
	DefaultDataDir = ".opwatch"
	// DBFile is the SQLite event store filename.
	DBFile = "opwatch.db"
	// DefinitionsDir is the subdirectory for user timeline definitions.
	DefinitionsDir = "definitions"

	// EnvarPrefix is the prefix of the environment variables that set global flags.
	EnvarPrefix = "OPWATCH"
)

// DBPath returns the event store path inside a data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// DefinitionsPath returns the timeline definitions directory inside a data directory.
func DefinitionsPath(dataDir string) string {
	return filepath.Join(dataDir, DefinitionsDir)
}
