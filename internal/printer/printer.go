package printer

import (
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/session"
)

// Printer knows how to print operation information in different formats.
type Printer interface {
	PrintOperation(op model.Operation) error
	PrintOperationList(ops []model.Operation) error
	PrintEvent(e model.LogEvent) error
	PrintStatus(op model.Operation, tl model.OperationTimeline, rawLog []model.RawLogLine) error
	PrintUpdate(u session.Update) error
	PrintDefinitionList(defs []model.TimelineDefinition) error
	PrintMessage(msg string) error
}

var (
	_ Printer = &TablePrinter{}
	_ Printer = &JSONPrinter{}
)
