// Package reconcile folds operation log events onto the expected stages of a timeline definition.
//
// The fold is pure: applying an event never mutates the received state, it returns a new one.
// Stage transitions only go from pending to a terminal status, duplicated sequence ids are
// ignored, and stage failures cancel the later pending stages by position, not by arrival.
package reconcile

import (
	"fmt"

	"github.com/slok/opwatch/internal/model"
)

// CancelledMessage is the display message of a cancelled stage without pending message.
const CancelledMessage = "Cancelled"

// Result describes what applying an event did to the state.
type Result string

const (
	// ResultApplied means the event changed the timeline.
	ResultApplied Result = "applied"
	// ResultIgnored means the event code is known but the targeted stages were already terminal
	// or the operation was already failed by a global error.
	ResultIgnored Result = "ignored"
	// ResultUnknown means the event code is not part of the definition.
	ResultUnknown Result = "unknown"
	// ResultDuplicate means the event sequence id was already applied.
	ResultDuplicate Result = "duplicate"
	// ResultMalformed means the event misses required fields and was dropped.
	ResultMalformed Result = "malformed"
	// ResultForeign means the event belongs to another operation and was dropped.
	ResultForeign Result = "foreign"
)

// Changed returns true if the result modified the timeline.
func (r Result) Changed() bool { return r == ResultApplied }

type codeKind int

const (
	codeKindSuccess codeKind = iota
	codeKindError
	codeKindGlobalError
)

type codeRef struct {
	kind  codeKind
	index int
}

// Reconciler applies log events of an operation type over its timeline definition.
// It is safe to share a Reconciler between goroutines, the states it returns are not: states
// derived from one another share their seen set and must be used from a single goroutine.
type Reconciler struct {
	def   model.TimelineDefinition
	codes map[string]codeRef
}

// New returns a new reconciler for a timeline definition.
func New(def model.TimelineDefinition) (*Reconciler, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timeline definition: %w", err)
	}

	codes := make(map[string]codeRef, len(def.Stages)*2+len(def.GlobalErrors))
	for i, s := range def.Stages {
		codes[s.SuccessCode] = codeRef{kind: codeKindSuccess, index: i}
		codes[s.ErrorCode] = codeRef{kind: codeKindError, index: i}
	}
	for i, g := range def.GlobalErrors {
		codes[g.ErrorCode] = codeRef{kind: codeKindGlobalError, index: i}
	}

	return &Reconciler{def: def, codes: codes}, nil
}

// Definition returns the timeline definition used by the reconciler.
func (r *Reconciler) Definition() model.TimelineDefinition { return r.def }

// State is the reconciliation state of a single operation.
type State struct {
	timeline model.OperationTimeline
	// seen is shared between the states of a fold, a state only sees its first seenLen entries.
	seen    *seenSet
	seenLen int
	// halted is set once a global error failed the operation.
	halted bool
}

// seenSet is an append-only set of sequence ids that remembers the insertion position.
type seenSet struct {
	index map[int64]int
	order []int64
}

func newSeenSet() *seenSet {
	return &seenSet{index: map[int64]int{}}
}

// prefix returns a new set with the first n entries.
func (s *seenSet) prefix(n int) *seenSet {
	p := &seenSet{
		index: make(map[int64]int, n+1),
		order: make([]int64, n, n+1),
	}
	if s != nil {
		copy(p.order, s.order[:n])
	}
	for i, seq := range p.order {
		p.index[seq] = i
	}
	return p
}

// Timeline returns a copy of the reconciled timeline.
func (s State) Timeline() model.OperationTimeline { return s.timeline.Copy() }

// Seen returns how many distinct sequence ids have been applied.
func (s State) Seen() int { return s.seenLen }

// HasSeen returns true if the sequence id was already applied.
func (s State) HasSeen(seqID int64) bool {
	if s.seen == nil {
		return false
	}
	i, ok := s.seen.index[seqID]
	return ok && i < s.seenLen
}

// Halted returns true when a global error failed the operation.
func (s State) Halted() bool { return s.halted }

// next returns a copy of the state with the sequence id marked as seen. The set is only
// appended in place when s is its latest state, otherwise s is an older state and gets its
// own copy, so previous states never observe it.
func (s State) next(seqID int64) State {
	set := s.seen
	if set == nil || s.seenLen != len(set.order) {
		set = set.prefix(s.seenLen)
	}
	set.index[seqID] = len(set.order)
	set.order = append(set.order, seqID)

	return State{
		timeline: s.timeline.Copy(),
		seen:     set,
		seenLen:  s.seenLen + 1,
		halted:   s.halted,
	}
}

// Init returns the initial state for an operation, every stage pending.
func (r *Reconciler) Init(operationID string) State {
	return State{
		timeline: model.NewOperationTimeline(r.def, operationID),
		seen:     newSeenSet(),
	}
}

// Replay folds all the events into the initial state of the operation.
func (r *Reconciler) Replay(operationID string, events []model.LogEvent) State {
	st := r.Init(operationID)
	for _, e := range events {
		st, _ = r.Apply(st, e)
	}
	return st
}

// Apply folds one event into the state and returns the new state.
// The received state is never modified.
func (r *Reconciler) Apply(st State, e model.LogEvent) (State, Result) {
	if err := e.Validate(); err != nil {
		return st, ResultMalformed
	}
	if e.OperationID != st.timeline.OperationID {
		return st, ResultForeign
	}
	if st.HasSeen(e.SequenceID) {
		return st, ResultDuplicate
	}

	next := st.next(e.SequenceID)

	// A global error is terminal for the whole operation.
	if next.halted {
		return next, ResultIgnored
	}

	ref, ok := r.codes[e.Code]
	if !ok {
		return next, ResultUnknown
	}

	var changed bool
	switch ref.kind {
	case codeKindGlobalError:
		r.failGlobally(&next, r.def.GlobalErrors[ref.index])
		return next, ResultApplied
	case codeKindSuccess:
		changed = r.succeedStage(&next, ref.index)
	case codeKindError:
		changed = r.failStage(&next, ref.index)
	}

	if !changed {
		return next, ResultIgnored
	}

	next.timeline.Status = deriveStatus(next.timeline.Stages)
	return next, ResultApplied
}

func (r *Reconciler) failGlobally(st *State, g model.GlobalErrorSpec) {
	for i := range st.timeline.Stages {
		if st.timeline.Stages[i].Status != model.StageStatusPending {
			continue
		}

		msg := r.def.Stages[i].ErrorMessage
		if msg == "" {
			msg = g.ErrorMessage
		}
		st.timeline.Stages[i].Status = model.StageStatusError
		st.timeline.Stages[i].DisplayMessage = msg
	}

	st.halted = true
	st.timeline.GlobalError = &g
	st.timeline.Status = model.OverallStatusFailed
}

func (r *Reconciler) succeedStage(st *State, i int) bool {
	stage := &st.timeline.Stages[i]
	if stage.Status.IsTerminal() {
		return false
	}

	stage.Status = model.StageStatusSuccess
	stage.DisplayMessage = r.def.Stages[i].SuccessMessage
	return true
}

func (r *Reconciler) failStage(st *State, i int) bool {
	stage := &st.timeline.Stages[i]
	if stage.Status.IsTerminal() {
		return false
	}

	stage.Status = model.StageStatusError
	stage.DisplayMessage = r.def.Stages[i].ErrorMessage

	// Later stages will never run.
	for j := i + 1; j < len(st.timeline.Stages); j++ {
		later := &st.timeline.Stages[j]
		if later.Status != model.StageStatusPending {
			continue
		}

		msg := r.def.Stages[j].PendingMessage
		if msg == "" {
			msg = CancelledMessage
		}
		later.Status = model.StageStatusCancelled
		later.DisplayMessage = msg
	}

	return true
}

func deriveStatus(stages []model.StageState) model.OverallStatus {
	if len(stages) == 0 {
		return model.OverallStatusOngoing
	}

	allResolved := true
	for _, s := range stages {
		switch s.Status {
		case model.StageStatusError:
			return model.OverallStatusFailed
		case model.StageStatusPending:
			allResolved = false
		}
	}

	if allResolved && stages[len(stages)-1].Status == model.StageStatusSuccess {
		return model.OverallStatusCompleted
	}

	return model.OverallStatusOngoing
}
