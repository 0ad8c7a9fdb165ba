package errorx

import (
	"fmt"
	"reflect"
)

// GENERAL ERROR:

// GeneralError - General App Error.
type GeneralError struct {
	message string
	err     error
}

// NewGeneralError - GeneralError constructor.
func NewGeneralError(msg string, args ...any) *GeneralError {
	return &GeneralError{message: fmt.Sprintf(msg, args...), err: nil}
}

// NewGeneralErrorWrapper - GeneralError constructor for wrapper of another error.
func NewGeneralErrorWrapper(err error, msg string, args ...any) *GeneralError {
	return &GeneralError{message: fmt.Sprintf(msg, args...), err: err}
}

// Error - return the error string.
func (ge *GeneralError) Error() string {
	if ge.err != nil {
		return fmt.Errorf("%s # Error wrap: %w", ge.message, ge.err).Error()
	}

	return ge.message
}

// Unwrap - return the wrapped error, if any.
func (ge *GeneralError) Unwrap() error {
	return ge.err
}

// DATABASE ERROR

// DatabaseError - Database layer error.
type DatabaseError struct {
	message string
	err     error
}

// NewDatabaseError - DatabaseError constructor.
func NewDatabaseError(msg string, args ...any) *DatabaseError {
	return &DatabaseError{message: fmt.Sprintf(msg, args...), err: nil}
}

// NewDatabaseErrorWrapper - DatabaseError constructor for wrapper of another error.
func NewDatabaseErrorWrapper(err error, msg string, args ...any) *DatabaseError {
	return &DatabaseError{message: fmt.Sprintf(msg, args...), err: err}
}

// Error - return the error string.
func (ge *DatabaseError) Error() string {
	if ge.err != nil {
		return fmt.Errorf("%s: %w", ge.message, ge.err).Error()
	}

	return ge.message
}

// Unwrap - return the wrapped error, if any.
func (ge *DatabaseError) Unwrap() error {
	return ge.err
}

// BULK TRANSFER ERROR

// BulkTransferError is returned when the bulk copy of a set of entities fails.
//
// It is the only error kind produced by the transfer step: connectivity loss, type or shape mismatch,
// constraint violations and timeouts reported by the underlying client all end up wrapped here.
// The original failure stays reachable through errors.Is / errors.As.
//
// Fields:
//   - EntityType: The Go type of the entities being inserted.
//   - Table: The destination table name.
type BulkTransferError struct {
	EntityType reflect.Type
	Table      string
	err        error
}

// NewBulkTransferError - BulkTransferError constructor.
func NewBulkTransferError(entityType reflect.Type, table string, err error) *BulkTransferError {
	return &BulkTransferError{EntityType: entityType, Table: table, err: err}
}

// Error - return the error string.
func (be *BulkTransferError) Error() string {
	msg := fmt.Sprintf("error bulk inserting entities of type %v into table %s", be.EntityType, be.Table)
	if be.err != nil {
		return fmt.Errorf("%s: %w", msg, be.err).Error()
	}

	return msg
}

// Unwrap - return the original transfer failure.
func (be *BulkTransferError) Unwrap() error {
	return be.err
}
