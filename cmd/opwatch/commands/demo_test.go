package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opwatch/internal/model"
)

func TestDemoEvents(t *testing.T) {
	def := model.TimelineDefinition{
		Name: "video",
		Stages: []model.StageSpec{
			{Name: "input", SuccessCode: "in_ok", ErrorCode: "in_ko"},
			{Name: "render", SuccessCode: "render_ok", ErrorCode: "render_ko"},
		},
		GlobalErrors: []model.GlobalErrorSpec{{ErrorCode: "timeout"}},
	}

	tests := map[string]struct {
		failStage   int
		globalError string
		expCodes    []string
		expErr      bool
	}{
		"Without failures every stage should succeed.": {
			expCodes: []string{demoProgressCode, "in_ok", demoProgressCode, "render_ok"},
		},
		"A failing stage should be the last event.": {
			failStage: 1,
			expCodes:  []string{demoProgressCode, "in_ko"},
		},
		"A global error should follow the first stage.": {
			globalError: "timeout",
			expCodes:    []string{demoProgressCode, "in_ok", "timeout"},
		},
		"An out of range fail stage should fail.": {
			failStage: 3,
			expErr:    true,
		},
		"An unknown global error should fail.": {
			globalError: "boom",
			expErr:      true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			events, err := demoEvents(def, "op-1", test.failStage, test.globalError)

			if test.expErr {
				assert.ErrorIs(err, model.ErrNotValid)
				return
			}
			require.NoError(err)

			codes := []string{}
			for _, e := range events {
				assert.Equal("op-1", e.OperationID)
				codes = append(codes, e.Code)
			}
			assert.Equal(test.expCodes, codes)
		})
	}
}
