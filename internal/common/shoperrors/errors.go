// Package shoperrors contains generic errors returned by the shop services and stores.
// Callers recover the concrete type with errors.As to decide how to present a failure.
//
// If multiple errors occur in some function (e.g., several cart lines fail validation), that
// function should return an error of type multierror.Error from package
// github.com/hashicorp/go-multierror that encapsulates those individual errors.
package shoperrors

import (
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// ErrAlreadyExists is a generic error to be returned whenever some resource already exists.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrAlreadyExists struct {
	Type    string // Resource type, e.g., "product" or "user"
	Value   string // Resource name, e.g., "bob"
	Message string // An optional message to include in the error message
}

func (err *ErrAlreadyExists) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q already exists", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q already exists", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrNotFound is a generic error to be returned whenever some resource isn't found.
// Type and Message are optional and are omitted from the error message if not provided.
//
// See ErrAlreadyExists for more info.
type ErrNotFound struct {
	Type    string
	Value   string
	Message string
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "batchSize"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", fmt.Sprint(err.Value), err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", fmt.Sprint(err.Value), err.Name, err.Message)
	}
}

// ErrUnauthenticated is returned when credentials don't match a known user,
// or when an operation needs a logged-in session and there is none.
type ErrUnauthenticated struct {
	Message string
}

func (err *ErrUnauthenticated) Error() string {
	if err.Message == "" {
		return "not authenticated"
	}
	return err.Message
}

// ErrInsufficientStock is returned when a cart or order asks for more units than are in stock.
type ErrInsufficientStock struct {
	ProductID string
	Requested int
	Available int
}

func (err *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", err.ProductID, err.Requested, err.Available)
}

// ErrMaxRetriesExceeded is returned when an operation is abandoned after retrying.
type ErrMaxRetriesExceeded struct {
	Message   string
	LastError error
}

func (err *ErrMaxRetriesExceeded) Error() string {
	if err.Message != "" {
		return fmt.Sprintf("exceeded maximum number of retries; %s: %s", err.Message, err.LastError)
	}
	return fmt.Sprintf("exceeded maximum number of retries: %s", err.LastError)
}

func (err *ErrMaxRetriesExceeded) Unwrap() error {
	return err.LastError
}

// IsNetworkError returns true if err is a network error, i.e. the database is unreachable or
// the connection dropped. The check looks through the whole chain of wrapped errors.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	// pgconn wraps dial failures in an unexported type.
	msg := err.Error()
	return strings.Contains(msg, "failed to connect") || strings.Contains(msg, "connection refused")
}

// IsRetryablePostgresError returns true if err is a Postgres error from a class that is
// transient: connection exceptions, transaction rollbacks, insufficient resources and operator intervention.
func IsRetryablePostgresError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgerrcode.IsConnectionException(pgErr.Code) ||
		pgerrcode.IsTransactionRollback(pgErr.Code) ||
		pgerrcode.IsInsufficientResources(pgErr.Code) ||
		pgerrcode.IsOperatorIntervention(pgErr.Code)
}

// IsUniqueViolation returns true if err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
