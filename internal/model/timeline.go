package model

// StageStatus is the reconciled state of a single stage.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusSuccess   StageStatus = "success"
	StageStatusError     StageStatus = "error"
	StageStatusCancelled StageStatus = "cancelled"
)

// IsTerminal returns true when the stage can't change anymore.
func (s StageStatus) IsTerminal() bool {
	return s == StageStatusSuccess || s == StageStatusError || s == StageStatusCancelled
}

// OverallStatus is the derived status of a whole operation.
type OverallStatus string

const (
	OverallStatusOngoing   OverallStatus = "ongoing"
	OverallStatusCompleted OverallStatus = "completed"
	OverallStatusFailed    OverallStatus = "failed"
)

// IsFinished returns true when the operation reached a final status.
func (s OverallStatus) IsFinished() bool {
	return s == OverallStatusCompleted || s == OverallStatusFailed
}

// StageState is the reconciled state of the stage at the same position in the definition.
type StageState struct {
	Name           string
	Status         StageStatus
	DisplayMessage string
}

// OperationTimeline is the projection of an operation's log events onto its expected stages.
type OperationTimeline struct {
	OperationID string
	Stages      []StageState
	Status      OverallStatus
	// GlobalError is set when a global error code failed the operation.
	GlobalError *GlobalErrorSpec
}

// NewOperationTimeline returns the initial all-pending timeline of an operation.
func NewOperationTimeline(def TimelineDefinition, operationID string) OperationTimeline {
	stages := make([]StageState, 0, len(def.Stages))
	for i, s := range def.Stages {
		stages = append(stages, StageState{
			Name:           def.StageName(i),
			Status:         StageStatusPending,
			DisplayMessage: s.PendingMessage,
		})
	}

	return OperationTimeline{
		OperationID: operationID,
		Stages:      stages,
		Status:      OverallStatusOngoing,
	}
}

// Copy returns a deep copy of the timeline.
func (t OperationTimeline) Copy() OperationTimeline {
	c := t
	if t.Stages != nil {
		c.Stages = make([]StageState, len(t.Stages))
		copy(c.Stages, t.Stages)
	}
	if t.GlobalError != nil {
		ge := *t.GlobalError
		c.GlobalError = &ge
	}
	return c
}

// IsEmpty returns true when the timeline doesn't track any operation.
func (t OperationTimeline) IsEmpty() bool {
	return t.OperationID == ""
}

// Headline returns the single user facing message that summarizes the timeline:
//   - Ongoing: the current (first pending) stage pending message.
//   - Failed: the earliest failing stage error message, or the global error message.
//   - Completed: the final stage success message.
func (t OperationTimeline) Headline() string {
	switch t.Status {
	case OverallStatusFailed:
		for _, s := range t.Stages {
			if s.Status == StageStatusError {
				return s.DisplayMessage
			}
		}
		if t.GlobalError != nil {
			return t.GlobalError.ErrorMessage
		}
	case OverallStatusCompleted:
		if len(t.Stages) > 0 {
			return t.Stages[len(t.Stages)-1].DisplayMessage
		}
	case OverallStatusOngoing:
		for _, s := range t.Stages {
			if s.Status == StageStatusPending {
				return s.DisplayMessage
			}
		}
	}

	return ""
}

// Progress returns the number of resolved stages and the total.
func (t OperationTimeline) Progress() (done, total int) {
	for _, s := range t.Stages {
		if s.Status.IsTerminal() {
			done++
		}
	}
	return done, len(t.Stages)
}
