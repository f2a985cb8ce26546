package calendar

import (
	"errors"
	"fmt"

	"gridcal/internal/model"
)

var (
	// ErrOutOfRange is returned when a date lies outside the configured range.
	ErrOutOfRange = errors.New("date is outside the configured range")
	// ErrNotSelectable is returned when a cell or date may not be selected
	// (blocked day, or a padding cell under a non-selectable policy).
	ErrNotSelectable = errors.New("date is not selectable")
	// ErrRangeUnavailable is returned for range and rule selection in single
	// selection mode.
	ErrRangeUnavailable = errors.New("range selection requires multiple selection mode")
	// ErrNoActiveRange is returned by ExtendRange when no range is anchored.
	ErrNoActiveRange = errors.New("no range selection in progress")
)

// InvalidSectionError reports a section index the current index does not
// have. It indicates the caller and the engine are out of sync.
type InvalidSectionError struct {
	Section int
	Count   int
}

func (e *InvalidSectionError) Error() string {
	return fmt.Sprintf("invalid section %d (section count %d)", e.Section, e.Count)
}

// InvalidCoordinateError reports a coordinate that has no backing date.
type InvalidCoordinateError struct {
	Coordinate model.Coordinate
	Reason     string
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate %s: %s", e.Coordinate, e.Reason)
}

// ConfigurationError reports rejected index parameters. A failed
// reconfiguration leaves the previous index in place.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid calendar configuration: %s: %s", e.Field, e.Reason)
}

// IsProgrammerError reports whether err signals an adapter/engine
// desynchronization rather than bad user input.
func IsProgrammerError(err error) bool {
	var se *InvalidSectionError
	var ce *InvalidCoordinateError
	return errors.As(err, &se) || errors.As(err, &ce)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
