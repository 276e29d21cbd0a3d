// Package errors provides structured error handling and the warning system
// shared by every pipeline stage. Recoverable conditions (a malformed cell)
// are surfaced as warnings through a settable handler; fatal conditions are
// returned as typed errors carrying the offending column name and a stack
// trace from cockroachdb/errors.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("tabpipe-warning: %v\n", w)
	}
	// zerolog warn func, injected lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the process-wide warning handler. It controls
// how recoverable conditions such as malformed cells are reported.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. A configured zerolog sink takes precedence over the
// plain handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Table / cell errors
//
// ===========================================================================

// MalformedValueError reports a decorated-numeric cell whose residue does
// not parse after stripping formatting characters. It is recoverable: the
// normalizer records the cell as missing and continues.
type MalformedValueError struct {
	Column string
	Row    int
	Value  string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("tabpipe: column %q row %d: malformed value %q", e.Column, e.Row, e.Value)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *MalformedValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Int("row", e.Row).
		Str("value", e.Value).
		Str("type", "MalformedValueError")
}

// NewMalformedValueError creates a MalformedValueError with a stack trace.
func NewMalformedValueError(column string, row int, value string) error {
	err := &MalformedValueError{Column: column, Row: row, Value: value}
	return errors.WithStack(err)
}

// UnimputableColumnError reports a column with no non-missing values at all.
// Nothing can be fitted against it; the run aborts.
type UnimputableColumnError struct {
	Column string
}

func (e *UnimputableColumnError) Error() string {
	return fmt.Sprintf("tabpipe: column %q has no observed values to impute from", e.Column)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *UnimputableColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Str("type", "UnimputableColumnError")
}

// NewUnimputableColumnError creates an UnimputableColumnError with a stack trace.
func NewUnimputableColumnError(column string) error {
	err := &UnimputableColumnError{Column: column}
	return errors.WithStack(err)
}

// UnseenCategoryError reports a validation-time level that was not present
// in the training table. Raised only under the strict unseen-level policy.
type UnseenCategoryError struct {
	Column string
	Level  string
}

func (e *UnseenCategoryError) Error() string {
	return fmt.Sprintf("tabpipe: column %q: level %q was not seen during fitting", e.Column, e.Level)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *UnseenCategoryError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Str("level", e.Level).
		Str("type", "UnseenCategoryError")
}

// NewUnseenCategoryError creates an UnseenCategoryError with a stack trace.
func NewUnseenCategoryError(column, level string) error {
	err := &UnseenCategoryError{Column: column, Level: level}
	return errors.WithStack(err)
}

// DegenerateColumnError reports a numeric column with zero variance on the
// training table. Standardizing it would divide by zero; the run aborts.
type DegenerateColumnError struct {
	Column string
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("tabpipe: column %q has zero variance and cannot be standardized", e.Column)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *DegenerateColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Str("type", "DegenerateColumnError")
}

// NewDegenerateColumnError creates a DegenerateColumnError with a stack trace.
func NewDegenerateColumnError(column string) error {
	err := &DegenerateColumnError{Column: column}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Estimator errors
//
// ===========================================================================

// NotFittedError reports Predict or Transform called before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("tabpipe: %s: this estimator is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports an input whose shape differs from what was fitted.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("tabpipe: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is invalid for the operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tabpipe: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty table or matrix is supplied.
	ErrEmptyData = New("empty data")

	// ErrSchemaMismatch is returned when train and validation schemas differ.
	ErrSchemaMismatch = New("schema mismatch")
)
