package model

import (
	"fmt"
)

// StageSpec describes one expected stage of an operation and the log codes that resolve it.
type StageSpec struct {
	// Name is a short display identifier (e.g. "render").
	Name           string
	SuccessCode    string
	ErrorCode      string
	PendingMessage string
	SuccessMessage string
	ErrorMessage   string
}

// GlobalErrorSpec is an error code that fails the whole operation regardless of stage progress.
type GlobalErrorSpec struct {
	ErrorCode    string
	ErrorMessage string
}

// TimelineDefinition is the static ordered set of stages expected for an operation type.
type TimelineDefinition struct {
	Name         string
	Stages       []StageSpec
	GlobalErrors []GlobalErrorSpec
}

// Validate checks the definition can be used to reconcile events.
// Every code must map to exactly one meaning.
func (d TimelineDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}
	if len(d.Stages) == 0 {
		return fmt.Errorf("at least one stage is required: %w", ErrNotValid)
	}

	codes := map[string]string{}
	register := func(code, owner string) error {
		if code == "" {
			return fmt.Errorf("%s: code is required: %w", owner, ErrNotValid)
		}
		if prev, ok := codes[code]; ok {
			return fmt.Errorf("%s: code %q already used by %s: %w", owner, code, prev, ErrNotValid)
		}
		codes[code] = owner
		return nil
	}

	for i, s := range d.Stages {
		owner := fmt.Sprintf("stage %d", i)
		if err := register(s.SuccessCode, owner+" success"); err != nil {
			return err
		}
		if err := register(s.ErrorCode, owner+" error"); err != nil {
			return err
		}
	}
	for i, g := range d.GlobalErrors {
		if err := register(g.ErrorCode, fmt.Sprintf("global error %d", i)); err != nil {
			return err
		}
	}

	return nil
}

// Copy returns a deep copy of the definition.
func (d TimelineDefinition) Copy() TimelineDefinition {
	c := d
	if d.Stages != nil {
		c.Stages = append([]StageSpec(nil), d.Stages...)
	}
	if d.GlobalErrors != nil {
		c.GlobalErrors = append([]GlobalErrorSpec(nil), d.GlobalErrors...)
	}
	return c
}

// StageName returns the display name of the stage at position i.
func (d TimelineDefinition) StageName(i int) string {
	if i < 0 || i >= len(d.Stages) {
		return ""
	}
	if d.Stages[i].Name != "" {
		return d.Stages[i].Name
	}
	return fmt.Sprintf("stage-%d", i+1)
}
