package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("merge validation failed")

	// ErrInvalidArgument is returned for option values Merge does not recognise.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoDataSource is reported by Summarize when the series has no provenance.
	ErrNoDataSource = errors.New("no data_source column found")

	// ErrUnknownVariable is returned by ExpandStrict.
	ErrUnknownVariable = errors.New("unknown variable")

	// ErrBeforeStartYear is returned by CheckAvailability.
	ErrBeforeStartYear = errors.New("requested period starts before variable is available")
)

// ValidationError carries every violation found before a merge was aborted.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	b.WriteString(":")
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v)
	}
	return b.String()
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
