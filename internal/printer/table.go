package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/session"
)

// TablePrinter prints operation information in a human readable table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintOperation prints a created operation.
func (t *TablePrinter) PrintOperation(op model.Operation) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", op.ID)
	fmt.Fprintf(t.writer, "Type:       %s\n", op.Type)
	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(op.CreatedAt))
	return nil
}

// PrintOperationList prints operations in a table format.
func (t *TablePrinter) PrintOperationList(ops []model.Operation) error {
	if len(ops) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tTYPE\tCREATED")
	for _, op := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", op.ID, op.Type, TimeAgo(op.CreatedAt))
	}

	return nil
}

// PrintEvent prints a stored event.
func (t *TablePrinter) PrintEvent(e model.LogEvent) error {
	fmt.Fprintf(t.writer, "Operation:  %s\n", e.OperationID)
	fmt.Fprintf(t.writer, "Sequence:   %d\n", e.SequenceID)
	fmt.Fprintf(t.writer, "Code:       %s\n", e.Code)
	if e.Message != "" {
		fmt.Fprintf(t.writer, "Message:    %s\n", e.Message)
	}
	fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(e.CreatedAt))
	return nil
}

// PrintStatus prints the operation timeline with its stages and the raw log.
func (t *TablePrinter) PrintStatus(op model.Operation, tl model.OperationTimeline, rawLog []model.RawLogLine) error {
	done, total := tl.Progress()

	fmt.Fprintf(t.writer, "Operation:  %s\n", op.ID)
	fmt.Fprintf(t.writer, "Type:       %s\n", op.Type)
	fmt.Fprintf(t.writer, "Created:    %s\n", TimeAgo(op.CreatedAt))
	fmt.Fprintf(t.writer, "Status:     %s (%d/%d)\n", tl.Status, done, total)
	fmt.Fprintf(t.writer, "Message:    %s\n", tl.Headline())
	if tl.GlobalError != nil {
		fmt.Fprintf(t.writer, "Error:      %s (%s)\n", tl.GlobalError.ErrorMessage, tl.GlobalError.ErrorCode)
	}

	fmt.Fprintln(t.writer)
	t.printStages(tl.Stages)

	if len(rawLog) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "SEQ\tTIME\tCODE\tMESSAGE")
	for _, l := range rawLog {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.SequenceID, FormatTimestamp(l.CreatedAt), l.Code, l.Message)
	}

	return nil
}

func (t *TablePrinter) printStages(stages []model.StageState) {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "STAGE\tSTATUS\tMESSAGE")
	for _, s := range stages {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Status, s.DisplayMessage)
	}
}

// PrintUpdate prints a single line for a live timeline update.
func (t *TablePrinter) PrintUpdate(u session.Update) error {
	tl := u.Timeline
	done, total := tl.Progress()

	switch u.Kind {
	case session.UpdateKindReset:
		if tl.IsEmpty() {
			return nil
		}
		fmt.Fprintf(t.writer, "Watching %s: %s [%s]\n", tl.OperationID, tl.Headline(), stagesSummary(tl.Stages))
	case session.UpdateKindEvent:
		if !u.Result.Changed() {
			return nil
		}
		fmt.Fprintf(t.writer, "%s (%d/%d) %s [%s]\n", tl.Status, done, total, tl.Headline(), stagesSummary(tl.Stages))
	case session.UpdateKindInterrupted:
		fmt.Fprintf(t.writer, "Connection lost, reconnecting: %s\n", u.Err)
	case session.UpdateKindEnded:
		if u.Err != nil {
			fmt.Fprintf(t.writer, "Stopped watching: %s\n", u.Err)
		}
	}

	return nil
}

func stagesSummary(stages []model.StageState) string {
	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		parts = append(parts, fmt.Sprintf("%s:%s", s.Name, s.Status))
	}
	return strings.Join(parts, " ")
}

// PrintDefinitionList prints timeline definitions in a table format.
func (t *TablePrinter) PrintDefinitionList(defs []model.TimelineDefinition) error {
	if len(defs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tSTAGES\tGLOBAL ERRORS")
	for _, d := range defs {
		names := make([]string, 0, len(d.Stages))
		for i := range d.Stages {
			names = append(names, d.StageName(i))
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", d.Name, strings.Join(names, " > "), len(d.GlobalErrors))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
