package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them via errors.Is.
var (
	ErrEmptyGroup        = errors.New("empty group")
	ErrDivisionUndefined = errors.New("division undefined")
	ErrMissingField      = errors.New("missing field")
	ErrEmptyDataset      = errors.New("empty dataset")
)

// EmptyGroupError is returned when a designated group matches no records.
type EmptyGroupError struct {
	Group Group
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("group %s has no records", e.Group)
}

func (e *EmptyGroupError) Is(target error) bool { return target == ErrEmptyGroup }

// DivisionUndefinedError is returned when a ratio has a structurally zero
// denominator with no defined fairness interpretation.
type DivisionUndefinedError struct {
	Metric string
	Reason string
}

func (e *DivisionUndefinedError) Error() string {
	return fmt.Sprintf("%s undefined: %s", e.Metric, e.Reason)
}

func (e *DivisionUndefinedError) Is(target error) bool { return target == ErrDivisionUndefined }

// MissingFieldError is returned when the input lacks a required column or
// field. Index is the offending record, -1 when the whole dataset lacks it.
type MissingFieldError struct {
	Field string
	Index int
}

func (e *MissingFieldError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("missing field %q (record %d)", e.Field, e.Index)
	}
	return fmt.Sprintf("missing field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }
