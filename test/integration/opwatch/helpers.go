package opwatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/opwatch/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "opwatch"
	}

	// go test changes the CWD to the test package directory, so relative paths would be wrong.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("OPWATCH_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("opwatch binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "OPWATCH_INTEGRATION"
		envBinary     = "OPWATCH_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary: os.Getenv(envBinary),
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RunOpwatchCmd runs an opwatch command with the given arguments and a specific db path.
// It suppresses logging output for cleaner test output.
func RunOpwatchCmd(ctx context.Context, config Config, dbPath, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--no-log --db-path %s %s", dbPath, cmdArgs)
	return testutils.RunOpwatch(ctx, nil, config.Binary, args, true)
}

// RunCreate creates an operation of a type in JSON format.
func RunCreate(ctx context.Context, config Config, dbPath, opType string) (stdout, stderr []byte, err error) {
	return RunOpwatchCmd(ctx, config, dbPath, fmt.Sprintf("operation create --type %s --format json", opType))
}

// RunPush pushes an event of an operation.
func RunPush(ctx context.Context, config Config, dbPath, opID, code string) (stdout, stderr []byte, err error) {
	return RunOpwatchCmd(ctx, config, dbPath, fmt.Sprintf("event push %s %s --format json", opID, code))
}

// RunStatus gets the status of an operation in JSON format.
func RunStatus(ctx context.Context, config Config, dbPath, opID string) (stdout, stderr []byte, err error) {
	return RunOpwatchCmd(ctx, config, dbPath, fmt.Sprintf("status %s --format json", opID))
}

// RunWatch watches an operation in JSON format (blocks until finished or context is cancelled).
func RunWatch(ctx context.Context, config Config, dbPath, opID string) (stdout, stderr []byte, err error) {
	return RunOpwatchCmd(ctx, config, dbPath, fmt.Sprintf("watch %s --poll-interval 20ms --format json", opID))
}

// RunDemo runs a self contained demo operation in JSON format.
func RunDemo(ctx context.Context, config Config, dbPath, extraArgs string) (stdout, stderr []byte, err error) {
	return RunOpwatchCmd(ctx, config, dbPath, fmt.Sprintf("demo --interval 10ms --format json %s", extraArgs))
}
