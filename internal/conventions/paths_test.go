package conventions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/opwatch/internal/conventions"
)

func TestPaths(t *testing.T) {
	tests := map[string]struct {
		path    func(string) string
		dataDir string
		exp     string
	}{
		"DB path should be inside the data dir.": {
			path:    conventions.DBPath,
			dataDir: "/home/user/.opwatch",
			exp:     "/home/user/.opwatch/opwatch.db",
		},
		"Definitions path should be inside the data dir.": {
			path:    conventions.DefinitionsPath,
			dataDir: "/home/user/.opwatch",
			exp:     "/home/user/.opwatch/definitions",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.path(test.dataDir))
		})
	}
}
