package lib

import (
	"time"

	"github.com/slok/opwatch/internal/model"
)

// StageStatus is the state of a single stage.
//
// Stages start pending and move once to success, error or cancelled.
type StageStatus string

const (
	// StageStatusPending indicates the stage outcome is not known yet.
	StageStatusPending StageStatus = "pending"
	// StageStatusSuccess indicates the stage finished successfully.
	StageStatusSuccess StageStatus = "success"
	// StageStatusError indicates the stage failed.
	StageStatusError StageStatus = "error"
	// StageStatusCancelled indicates the stage will never run because a previous stage failed.
	StageStatusCancelled StageStatus = "cancelled"
)

// OverallStatus is the state of a whole operation.
type OverallStatus string

const (
	// OverallStatusOngoing indicates the operation is still running.
	OverallStatusOngoing OverallStatus = "ongoing"
	// OverallStatusCompleted indicates every stage finished and the last one succeeded.
	OverallStatusCompleted OverallStatus = "completed"
	// OverallStatusFailed indicates a stage or a global error failed the operation.
	OverallStatusFailed OverallStatus = "failed"
)

// IsFinished returns true when the operation will not change anymore.
func (s OverallStatus) IsFinished() bool {
	return s == OverallStatusCompleted || s == OverallStatusFailed
}

// Operation is a tracked multi-stage job.
type Operation struct {
	// ID is the unique identifier (ULID) assigned at creation.
	ID string
	// Type is the timeline definition name of the operation.
	Type string
	// CreatedAt is when the operation was registered.
	CreatedAt time.Time
}

// Event is a stored operation log event.
type Event struct {
	OperationID string
	// SequenceID is assigned by the store, unique per operation.
	SequenceID int64
	Code       string
	Message    string
	CreatedAt  time.Time
}

// Stage is the current state of an operation stage.
type Stage struct {
	Name    string
	Status  StageStatus
	Message string
}

// GlobalError is an operation level error code.
type GlobalError struct {
	Code    string
	Message string
}

// Timeline is the projection of the operation events onto its stages.
type Timeline struct {
	OperationID string
	Status      OverallStatus
	// Headline is the single user facing message that summarizes the timeline.
	Headline string
	Stages   []Stage
	// GlobalError is set when a global error code failed the operation.
	GlobalError *GlobalError
}

// LogLine is a received log event as shown in the raw log.
type LogLine struct {
	SequenceID int64
	Code       string
	Message    string
	CreatedAt  time.Time
}

// Status is the current state of an operation.
type Status struct {
	Operation Operation
	Timeline  Timeline
	// RawLog has every distinct received event sorted by creation time, including the
	// ones with codes that don't belong to the definition.
	RawLog []LogLine
}

// StageDefinition describes an expected stage of an operation type.
type StageDefinition struct {
	Name           string
	SuccessCode    string
	ErrorCode      string
	PendingMessage string
	SuccessMessage string
	ErrorMessage   string
}

// Definition describes the stages of an operation type.
type Definition struct {
	Name         string
	Stages       []StageDefinition
	GlobalErrors []GlobalError
}

// PushEventOpts are the optional settings of a pushed event.
type PushEventOpts struct {
	// Message is a free text message, only used for display.
	Message string
}

// ListOperationsOpts are the optional filters for listing operations.
type ListOperationsOpts struct {
	// Type only returns operations of this type.
	Type string
}

// --- Conversion helpers ---

func fromInternalOperation(op model.Operation) Operation {
	return Operation{ID: op.ID, Type: op.Type, CreatedAt: op.CreatedAt}
}

func fromInternalOperationList(ops []model.Operation) []Operation {
	result := make([]Operation, len(ops))
	for i, op := range ops {
		result[i] = fromInternalOperation(op)
	}
	return result
}

func fromInternalEvent(e model.LogEvent) Event {
	return Event{
		OperationID: e.OperationID,
		SequenceID:  e.SequenceID,
		Code:        e.Code,
		Message:     e.Message,
		CreatedAt:   e.CreatedAt,
	}
}

func fromInternalTimeline(tl model.OperationTimeline) Timeline {
	result := Timeline{
		OperationID: tl.OperationID,
		Status:      OverallStatus(tl.Status),
		Headline:    tl.Headline(),
		Stages:      make([]Stage, len(tl.Stages)),
	}
	for i, s := range tl.Stages {
		result.Stages[i] = Stage{Name: s.Name, Status: StageStatus(s.Status), Message: s.DisplayMessage}
	}
	if tl.GlobalError != nil {
		result.GlobalError = &GlobalError{Code: tl.GlobalError.ErrorCode, Message: tl.GlobalError.ErrorMessage}
	}

	return result
}

func fromInternalRawLog(lines []model.RawLogLine) []LogLine {
	result := make([]LogLine, len(lines))
	for i, l := range lines {
		result[i] = LogLine{SequenceID: l.SequenceID, Code: l.Code, Message: l.Message, CreatedAt: l.CreatedAt}
	}
	return result
}

func fromInternalDefinition(d model.TimelineDefinition) Definition {
	result := Definition{
		Name:         d.Name,
		Stages:       make([]StageDefinition, len(d.Stages)),
		GlobalErrors: make([]GlobalError, len(d.GlobalErrors)),
	}
	for i, s := range d.Stages {
		result.Stages[i] = StageDefinition{
			Name:           d.StageName(i),
			SuccessCode:    s.SuccessCode,
			ErrorCode:      s.ErrorCode,
			PendingMessage: s.PendingMessage,
			SuccessMessage: s.SuccessMessage,
			ErrorMessage:   s.ErrorMessage,
		}
	}
	for i, g := range d.GlobalErrors {
		result.GlobalErrors[i] = GlobalError{Code: g.ErrorCode, Message: g.ErrorMessage}
	}

	return result
}

func fromInternalDefinitionList(defs []model.TimelineDefinition) []Definition {
	result := make([]Definition, len(defs))
	for i, d := range defs {
		result[i] = fromInternalDefinition(d)
	}
	return result
}
