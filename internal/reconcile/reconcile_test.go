package reconcile_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/reconcile"
)

const opID = "01JABCDEFGHJKMNPQRSTVWXYZ0"

func videoDefinition() model.TimelineDefinition {
	return model.TimelineDefinition{
		Name: "video",
		Stages: []model.StageSpec{
			{Name: "upload", SuccessCode: "upload_success", ErrorCode: "upload_fail", PendingMessage: "Uploading input", SuccessMessage: "Input received", ErrorMessage: "Upload failed"},
			{Name: "render", SuccessCode: "render_success", ErrorCode: "render_fail", PendingMessage: "Rendering video", SuccessMessage: "Video rendered", ErrorMessage: "Render failed"},
			{Name: "publish", SuccessCode: "publish_success", ErrorCode: "publish_fail", PendingMessage: "Publishing video", SuccessMessage: "Video published"},
		},
		GlobalErrors: []model.GlobalErrorSpec{
			{ErrorCode: "cv_unexpected_error", ErrorMessage: "Unexpected error"},
		},
	}
}

func newReconciler(t *testing.T) *reconcile.Reconciler {
	t.Helper()
	r, err := reconcile.New(videoDefinition())
	require.NoError(t, err)
	return r
}

// events builds events for the operation assigning sequence ids by position.
func events(codes ...string) []model.LogEvent {
	evs := make([]model.LogEvent, 0, len(codes))
	for i, c := range codes {
		evs = append(evs, model.LogEvent{OperationID: opID, Code: c, SequenceID: int64(i + 1)})
	}
	return evs
}

func stage(name string, status model.StageStatus, msg string) model.StageState {
	return model.StageState{Name: name, Status: status, DisplayMessage: msg}
}

func TestNew(t *testing.T) {
	_, err := reconcile.New(model.TimelineDefinition{Name: "empty"})
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestReconcilerReplay(t *testing.T) {
	tests := map[string]struct {
		events      []model.LogEvent
		expTimeline model.OperationTimeline
	}{
		"Without events every stage should be pending.": {
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusOngoing,
				Stages: []model.StageState{
					stage("upload", model.StageStatusPending, "Uploading input"),
					stage("render", model.StageStatusPending, "Rendering video"),
					stage("publish", model.StageStatusPending, "Publishing video"),
				},
			},
		},

		"All stages succeeding in order should complete the operation.": {
			events: events("upload_success", "render_success", "publish_success"),
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusCompleted,
				Stages: []model.StageState{
					stage("upload", model.StageStatusSuccess, "Input received"),
					stage("render", model.StageStatusSuccess, "Video rendered"),
					stage("publish", model.StageStatusSuccess, "Video published"),
				},
			},
		},

		"A failing stage should cancel the later stages and fail the operation.": {
			events: events("upload_success", "render_fail"),
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusFailed,
				Stages: []model.StageState{
					stage("upload", model.StageStatusSuccess, "Input received"),
					stage("render", model.StageStatusError, "Render failed"),
					stage("publish", model.StageStatusCancelled, "Publishing video"),
				},
			},
		},

		"Out of order success events should converge to the in order result.": {
			events: events("render_success", "upload_success"),
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusOngoing,
				Stages: []model.StageState{
					stage("upload", model.StageStatusSuccess, "Input received"),
					stage("render", model.StageStatusSuccess, "Video rendered"),
					stage("publish", model.StageStatusPending, "Publishing video"),
				},
			},
		},

		"A duplicated delivery should be applied once.": {
			events: []model.LogEvent{
				{OperationID: opID, Code: "upload_success", SequenceID: 1},
				{OperationID: opID, Code: "upload_success", SequenceID: 1},
			},
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusOngoing,
				Stages: []model.StageState{
					stage("upload", model.StageStatusSuccess, "Input received"),
					stage("render", model.StageStatusPending, "Rendering video"),
					stage("publish", model.StageStatusPending, "Publishing video"),
				},
			},
		},

		"A global error should fail every pending stage.": {
			events: events("cv_unexpected_error"),
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusFailed,
				GlobalError: &model.GlobalErrorSpec{ErrorCode: "cv_unexpected_error", ErrorMessage: "Unexpected error"},
				Stages: []model.StageState{
					stage("upload", model.StageStatusError, "Upload failed"),
					stage("render", model.StageStatusError, "Render failed"),
					stage("publish", model.StageStatusError, "Unexpected error"),
				},
			},
		},

		"A global error should dominate success events arriving later.": {
			events: events("upload_success", "cv_unexpected_error", "render_success", "publish_success"),
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusFailed,
				GlobalError: &model.GlobalErrorSpec{ErrorCode: "cv_unexpected_error", ErrorMessage: "Unexpected error"},
				Stages: []model.StageState{
					stage("upload", model.StageStatusSuccess, "Input received"),
					stage("render", model.StageStatusError, "Render failed"),
					stage("publish", model.StageStatusError, "Unexpected error"),
				},
			},
		},

		"A global error after completion should fail the operation without touching stages.": {
			events: events("upload_success", "render_success", "publish_success", "cv_unexpected_error"),
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusFailed,
				GlobalError: &model.GlobalErrorSpec{ErrorCode: "cv_unexpected_error", ErrorMessage: "Unexpected error"},
				Stages: []model.StageState{
					stage("upload", model.StageStatusSuccess, "Input received"),
					stage("render", model.StageStatusSuccess, "Video rendered"),
					stage("publish", model.StageStatusSuccess, "Video published"),
				},
			},
		},

		"A first stage failure should cancel all the rest.": {
			events: events("upload_fail"),
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusFailed,
				Stages: []model.StageState{
					stage("upload", model.StageStatusError, "Upload failed"),
					stage("render", model.StageStatusCancelled, "Rendering video"),
					stage("publish", model.StageStatusCancelled, "Publishing video"),
				},
			},
		},

		"Unknown, malformed and foreign events should not change the timeline.": {
			events: []model.LogEvent{
				{OperationID: opID, Code: "render_progress_50", SequenceID: 1},
				{OperationID: opID, Code: "upload_success"},
				{OperationID: "another-op", Code: "upload_success", SequenceID: 2},
				{Code: "upload_success", SequenceID: 3},
			},
			expTimeline: model.OperationTimeline{
				OperationID: opID,
				Status:      model.OverallStatusOngoing,
				Stages: []model.StageState{
					stage("upload", model.StageStatusPending, "Uploading input"),
					stage("render", model.StageStatusPending, "Rendering video"),
					stage("publish", model.StageStatusPending, "Publishing video"),
				},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := newReconciler(t)

			st := r.Replay(opID, test.events)

			assert.Equal(t, test.expTimeline, st.Timeline())
		})
	}
}

func TestReconcilerApplyResult(t *testing.T) {
	tests := map[string]struct {
		prev      []model.LogEvent
		event     model.LogEvent
		expResult reconcile.Result
	}{
		"A stage code on a pending stage should be applied.": {
			event:     model.LogEvent{OperationID: opID, Code: "upload_success", SequenceID: 1},
			expResult: reconcile.ResultApplied,
		},

		"A repeated sequence id should be a duplicate.": {
			prev:      events("upload_success"),
			event:     model.LogEvent{OperationID: opID, Code: "upload_success", SequenceID: 1},
			expResult: reconcile.ResultDuplicate,
		},

		"A stage code on a terminal stage should be ignored.": {
			prev:      events("upload_success"),
			event:     model.LogEvent{OperationID: opID, Code: "upload_fail", SequenceID: 2},
			expResult: reconcile.ResultIgnored,
		},

		"A stage code on a cancelled stage should be ignored.": {
			prev:      events("upload_fail"),
			event:     model.LogEvent{OperationID: opID, Code: "render_success", SequenceID: 2},
			expResult: reconcile.ResultIgnored,
		},

		"Any code after a global error should be ignored.": {
			prev:      events("cv_unexpected_error"),
			event:     model.LogEvent{OperationID: opID, Code: "another_unknown", SequenceID: 2},
			expResult: reconcile.ResultIgnored,
		},

		"A code not in the definition should be unknown.": {
			event:     model.LogEvent{OperationID: opID, Code: "render_progress", SequenceID: 1},
			expResult: reconcile.ResultUnknown,
		},

		"An event without sequence id should be malformed.": {
			event:     model.LogEvent{OperationID: opID, Code: "upload_success"},
			expResult: reconcile.ResultMalformed,
		},

		"An event of another operation should be foreign.": {
			event:     model.LogEvent{OperationID: "other", Code: "upload_success", SequenceID: 1},
			expResult: reconcile.ResultForeign,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := newReconciler(t)
			st := r.Replay(opID, test.prev)

			_, res := r.Apply(st, test.event)

			assert.Equal(t, test.expResult, res)
		})
	}
}

func TestReconcilerApplyIsPure(t *testing.T) {
	r := newReconciler(t)
	st := r.Init(opID)
	before := st.Timeline()

	next, res := r.Apply(st, model.LogEvent{OperationID: opID, Code: "upload_fail", SequenceID: 1})
	require.Equal(t, reconcile.ResultApplied, res)

	assert.Equal(t, before, st.Timeline())
	assert.Equal(t, 0, st.Seen())
	assert.False(t, st.HasSeen(1))
	assert.True(t, next.HasSeen(1))
	assert.Equal(t, model.OverallStatusFailed, next.Timeline().Status)
}

func TestReconcilerBranchedStatesAreIndependent(t *testing.T) {
	assert := assert.New(t)
	r := newReconciler(t)

	base := r.Replay(opID, events("upload_success"))
	a, _ := r.Apply(base, model.LogEvent{OperationID: opID, Code: "render_success", SequenceID: 2})
	b, _ := r.Apply(base, model.LogEvent{OperationID: opID, Code: "render_fail", SequenceID: 3})

	assert.Equal(1, base.Seen())
	assert.False(base.HasSeen(2))
	assert.False(base.HasSeen(3))

	assert.True(a.HasSeen(2))
	assert.False(a.HasSeen(3))
	assert.True(b.HasSeen(3))
	assert.False(b.HasSeen(2))

	// Keep folding on both branches.
	a2, res := r.Apply(a, model.LogEvent{OperationID: opID, Code: "publish_success", SequenceID: 3})
	assert.Equal(reconcile.ResultApplied, res)
	assert.Equal(model.OverallStatusCompleted, a2.Timeline().Status)
	_, res = r.Apply(b, model.LogEvent{OperationID: opID, Code: "render_fail", SequenceID: 3})
	assert.Equal(reconcile.ResultDuplicate, res)
	assert.Equal(model.OverallStatusFailed, b.Timeline().Status)
}

func TestReconcilerLongFold(t *testing.T) {
	r := newReconciler(t)

	const total = 20000
	evs := make([]model.LogEvent, 0, total*2)
	for i := 1; i <= total; i++ {
		evs = append(evs, model.LogEvent{OperationID: opID, Code: "render_progress", SequenceID: int64(i)})
	}
	// Redelivery of the whole history, like a reconnection replay.
	evs = append(evs, evs...)

	st := r.Replay(opID, evs)

	assert.Equal(t, total, st.Seen())
	assert.True(t, st.HasSeen(total))
	assert.False(t, st.HasSeen(total+1))
}

func TestReconcilerConflictingEventsFirstTerminalWins(t *testing.T) {
	tests := map[string]struct {
		events    []model.LogEvent
		expStages []model.StageState
	}{
		"A stage failure arriving first should cancel a later stage success.": {
			events: events("upload_fail", "render_success"),
			expStages: []model.StageState{
				stage("upload", model.StageStatusError, "Upload failed"),
				stage("render", model.StageStatusCancelled, "Rendering video"),
				stage("publish", model.StageStatusCancelled, "Publishing video"),
			},
		},
		"A later stage success arriving first should survive the previous stage failure.": {
			events: events("render_success", "upload_fail"),
			expStages: []model.StageState{
				stage("upload", model.StageStatusError, "Upload failed"),
				stage("render", model.StageStatusSuccess, "Video rendered"),
				stage("publish", model.StageStatusCancelled, "Publishing video"),
			},
		},
		"A stage success arriving first should ignore the same stage failure.": {
			events: events("upload_success", "upload_fail"),
			expStages: []model.StageState{
				stage("upload", model.StageStatusSuccess, "Input received"),
				stage("render", model.StageStatusPending, "Rendering video"),
				stage("publish", model.StageStatusPending, "Publishing video"),
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := newReconciler(t)
			tl := r.Replay(opID, test.events).Timeline()
			assert.Equal(t, test.expStages, tl.Stages)
		})
	}
}

func TestReconcilerIdempotence(t *testing.T) {
	r := newReconciler(t)

	all := []model.LogEvent{
		{OperationID: opID, Code: "upload_success", SequenceID: 1},
		{OperationID: opID, Code: "render_fail", SequenceID: 2},
		{OperationID: opID, Code: "publish_success", SequenceID: 3},
		{OperationID: opID, Code: "cv_unexpected_error", SequenceID: 4},
		{OperationID: opID, Code: "render_progress", SequenceID: 5},
		{OperationID: opID, Code: "upload_success"},
	}

	// Every prefix state applying every event twice should be equal to applying it once.
	for i := range all {
		base := r.Replay(opID, all[:i])
		for _, e := range all {
			t.Run(fmt.Sprintf("prefix %d event %s/%d", i, e.Code, e.SequenceID), func(t *testing.T) {
				once, _ := r.Apply(base, e)
				twice, _ := r.Apply(once, e)

				assert.Equal(t, once.Timeline(), twice.Timeline())
				assert.Equal(t, once.Seen(), twice.Seen())
				assert.Equal(t, once.Halted(), twice.Halted())
			})
		}
	}
}

func TestReconcilerOrderIndependence(t *testing.T) {
	tests := map[string]struct {
		events []model.LogEvent
	}{
		"A successful run with duplicates and unknown codes.": {
			events: []model.LogEvent{
				{OperationID: opID, Code: "upload_success", SequenceID: 1},
				{OperationID: opID, Code: "render_progress", SequenceID: 2},
				{OperationID: opID, Code: "render_success", SequenceID: 3},
				{OperationID: opID, Code: "publish_success", SequenceID: 4},
				{OperationID: opID, Code: "render_success", SequenceID: 3},
			},
		},

		"A run failing on render.": {
			events: []model.LogEvent{
				{OperationID: opID, Code: "upload_success", SequenceID: 1},
				{OperationID: opID, Code: "render_progress", SequenceID: 2},
				{OperationID: opID, Code: "render_fail", SequenceID: 3},
				{OperationID: opID, Code: "upload_success", SequenceID: 1},
			},
		},

		"A run failing on the first stage.": {
			events: []model.LogEvent{
				{OperationID: opID, Code: "upload_fail", SequenceID: 1},
				{OperationID: opID, Code: "upload_progress", SequenceID: 2},
				{OperationID: opID, Code: "upload_fail", SequenceID: 1},
			},
		},

		"A partial run.": {
			events: []model.LogEvent{
				{OperationID: opID, Code: "render_success", SequenceID: 2},
				{OperationID: opID, Code: "upload_success", SequenceID: 1},
				{OperationID: "other", Code: "publish_fail", SequenceID: 3},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := newReconciler(t)
			exp := r.Replay(opID, test.events)

			for _, perm := range permutations(test.events) {
				got := r.Replay(opID, perm)
				assert.Equal(t, exp.Timeline(), got.Timeline())
				assert.Equal(t, exp.Seen(), got.Seen())
			}
		})
	}
}

func TestReconcilerTerminalMonotonicity(t *testing.T) {
	r := newReconciler(t)
	codes := []string{
		"upload_success", "upload_fail", "render_success", "render_fail",
		"publish_success", "publish_fail", "cv_unexpected_error", "noise",
	}

	// Feed every code after every code and check no terminal stage ever changes.
	seq := int64(0)
	for _, first := range codes {
		for _, second := range codes {
			seq++
			st, _ := r.Apply(r.Init(opID), model.LogEvent{OperationID: opID, Code: first, SequenceID: seq})
			seq++
			next, _ := r.Apply(st, model.LogEvent{OperationID: opID, Code: second, SequenceID: seq})

			prev := st.Timeline()
			got := next.Timeline()
			for i := range prev.Stages {
				if prev.Stages[i].Status.IsTerminal() {
					assert.Equal(t, prev.Stages[i], got.Stages[i], "%s then %s: stage %d", first, second, i)
				}
			}
		}
	}
}

func TestReconcilerCascade(t *testing.T) {
	r := newReconciler(t)

	for i, s := range videoDefinition().Stages {
		t.Run(s.Name, func(t *testing.T) {
			// Resolve every previous stage successfully, then fail stage i.
			var evs []model.LogEvent
			for j := 0; j < i; j++ {
				evs = append(evs, model.LogEvent{OperationID: opID, Code: videoDefinition().Stages[j].SuccessCode, SequenceID: int64(j + 1)})
			}
			evs = append(evs, model.LogEvent{OperationID: opID, Code: s.ErrorCode, SequenceID: int64(i + 1)})

			tl := r.Replay(opID, evs).Timeline()

			for j, got := range tl.Stages {
				switch {
				case j < i:
					assert.Equal(t, model.StageStatusSuccess, got.Status)
				case j == i:
					assert.Equal(t, model.StageStatusError, got.Status)
				default:
					assert.Equal(t, model.StageStatusCancelled, got.Status)
				}
			}
			assert.Equal(t, model.OverallStatusFailed, tl.Status)
		})
	}
}

func TestReconcilerCancelledMessageFallback(t *testing.T) {
	def := model.TimelineDefinition{
		Name: "silent",
		Stages: []model.StageSpec{
			{SuccessCode: "a_ok", ErrorCode: "a_ko", ErrorMessage: "A failed"},
			{SuccessCode: "b_ok", ErrorCode: "b_ko"},
		},
	}
	r, err := reconcile.New(def)
	require.NoError(t, err)

	tl := r.Replay(opID, events("a_ko")).Timeline()

	assert.Equal(t, stage("stage-2", model.StageStatusCancelled, reconcile.CancelledMessage), tl.Stages[1])
}

func TestZeroStateIgnoresEverything(t *testing.T) {
	r := newReconciler(t)

	var st reconcile.State
	next, res := r.Apply(st, model.LogEvent{OperationID: opID, Code: "upload_success", SequenceID: 1})

	assert.Equal(t, reconcile.ResultForeign, res)
	assert.True(t, next.Timeline().IsEmpty())
}

func permutations(evs []model.LogEvent) [][]model.LogEvent {
	if len(evs) <= 1 {
		return [][]model.LogEvent{append([]model.LogEvent(nil), evs...)}
	}

	var res [][]model.LogEvent
	for i := range evs {
		rest := make([]model.LogEvent, 0, len(evs)-1)
		rest = append(rest, evs[:i]...)
		rest = append(rest, evs[i+1:]...)
		for _, p := range permutations(rest) {
			res = append(res, append([]model.LogEvent{evs[i]}, p...))
		}
	}
	return res
}
