package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/session"
)

// JSONPrinter prints operation information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type operationOutput struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type eventOutput struct {
	OperationID string    `json:"operation_id"`
	SequenceID  int64     `json:"sequence_id"`
	Code        string    `json:"code"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type stageOutput struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type globalErrorOutput struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type timelineOutput struct {
	OperationID string             `json:"operation_id"`
	Status      string             `json:"status"`
	Headline    string             `json:"headline"`
	Stages      []stageOutput      `json:"stages"`
	GlobalError *globalErrorOutput `json:"global_error,omitempty"`
}

type rawLogLineOutput struct {
	SequenceID int64     `json:"sequence_id"`
	Code       string    `json:"code"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// statusOutput represents the full operation status output.
type statusOutput struct {
	Operation operationOutput    `json:"operation"`
	Timeline  timelineOutput     `json:"timeline"`
	RawLog    []rawLogLineOutput `json:"raw_log"`
}

// updateOutput is a single live update, printed one per line.
type updateOutput struct {
	Kind     string          `json:"kind"`
	Timeline *timelineOutput `json:"timeline,omitempty"`
	Event    *eventOutput    `json:"event,omitempty"`
	Result   string          `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type stageSpecOutput struct {
	Name           string `json:"name"`
	SuccessCode    string `json:"success_code"`
	ErrorCode      string `json:"error_code"`
	PendingMessage string `json:"pending_message,omitempty"`
	SuccessMessage string `json:"success_message,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

type definitionOutput struct {
	Name         string              `json:"name"`
	Stages       []stageSpecOutput   `json:"stages"`
	GlobalErrors []globalErrorOutput `json:"global_errors"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mapEvent(e model.LogEvent) eventOutput {
	return eventOutput{
		OperationID: e.OperationID,
		SequenceID:  e.SequenceID,
		Code:        e.Code,
		Message:     e.Message,
		CreatedAt:   e.CreatedAt.UTC(),
	}
}

func mapTimeline(tl model.OperationTimeline) timelineOutput {
	out := timelineOutput{
		OperationID: tl.OperationID,
		Status:      string(tl.Status),
		Headline:    tl.Headline(),
		Stages:      make([]stageOutput, 0, len(tl.Stages)),
	}
	for _, s := range tl.Stages {
		out.Stages = append(out.Stages, stageOutput{Name: s.Name, Status: string(s.Status), Message: s.DisplayMessage})
	}
	if tl.GlobalError != nil {
		out.GlobalError = &globalErrorOutput{Code: tl.GlobalError.ErrorCode, Message: tl.GlobalError.ErrorMessage}
	}
	return out
}

// PrintOperation prints an operation in JSON format.
func (j *JSONPrinter) PrintOperation(op model.Operation) error {
	return j.encode(operationOutput{ID: op.ID, Type: op.Type, CreatedAt: op.CreatedAt.UTC()})
}

// PrintOperationList prints operations in JSON format.
func (j *JSONPrinter) PrintOperationList(ops []model.Operation) error {
	items := make([]operationOutput, len(ops))
	for i, op := range ops {
		items[i] = operationOutput{ID: op.ID, Type: op.Type, CreatedAt: op.CreatedAt.UTC()}
	}

	return j.encode(items)
}

// PrintEvent prints an event in JSON format.
func (j *JSONPrinter) PrintEvent(e model.LogEvent) error {
	return j.encode(mapEvent(e))
}

// PrintStatus prints the operation timeline and raw log in JSON format.
func (j *JSONPrinter) PrintStatus(op model.Operation, tl model.OperationTimeline, rawLog []model.RawLogLine) error {
	output := statusOutput{
		Operation: operationOutput{ID: op.ID, Type: op.Type, CreatedAt: op.CreatedAt.UTC()},
		Timeline:  mapTimeline(tl),
		RawLog:    make([]rawLogLineOutput, 0, len(rawLog)),
	}
	for _, l := range rawLog {
		output.RawLog = append(output.RawLog, rawLogLineOutput{
			SequenceID: l.SequenceID,
			Code:       l.Code,
			Message:    l.Message,
			CreatedAt:  l.CreatedAt.UTC(),
		})
	}

	return j.encode(output)
}

// PrintUpdate prints a live update as a single JSON line.
func (j *JSONPrinter) PrintUpdate(u session.Update) error {
	output := updateOutput{Kind: string(u.Kind), Result: string(u.Result)}
	if !u.Timeline.IsEmpty() {
		tl := mapTimeline(u.Timeline)
		output.Timeline = &tl
	}
	if u.Event != nil {
		e := mapEvent(*u.Event)
		output.Event = &e
	}
	if u.Err != nil {
		output.Error = u.Err.Error()
	}

	return json.NewEncoder(j.writer).Encode(output)
}

// PrintDefinitionList prints timeline definitions in JSON format.
func (j *JSONPrinter) PrintDefinitionList(defs []model.TimelineDefinition) error {
	items := make([]definitionOutput, len(defs))
	for i, d := range defs {
		item := definitionOutput{
			Name:         d.Name,
			Stages:       make([]stageSpecOutput, 0, len(d.Stages)),
			GlobalErrors: make([]globalErrorOutput, 0, len(d.GlobalErrors)),
		}
		for si, s := range d.Stages {
			item.Stages = append(item.Stages, stageSpecOutput{
				Name:           d.StageName(si),
				SuccessCode:    s.SuccessCode,
				ErrorCode:      s.ErrorCode,
				PendingMessage: s.PendingMessage,
				SuccessMessage: s.SuccessMessage,
				ErrorMessage:   s.ErrorMessage,
			})
		}
		for _, g := range d.GlobalErrors {
			item.GlobalErrors = append(item.GlobalErrors, globalErrorOutput{Code: g.ErrorCode, Message: g.ErrorMessage})
		}
		items[i] = item
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}
