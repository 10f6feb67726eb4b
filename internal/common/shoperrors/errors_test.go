package shoperrors

import (
	"net"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"ErrAlreadyExists with type": {
			&ErrAlreadyExists{Type: "user", Value: "bob"},
			`resource "bob" of type "user" already exists`,
		},
		"ErrAlreadyExists with message": {
			&ErrAlreadyExists{Value: "bob", Message: "Username already exists"},
			`resource "bob" already exists; Username already exists`,
		},
		"ErrNotFound": {
			&ErrNotFound{Type: "product", Value: "P000000001"},
			`resource "P000000001" of type "product" does not exist`,
		},
		"ErrInvalidArgument": {
			&ErrInvalidArgument{Name: "batchSize", Value: 0, Message: "must be positive"},
			`value "0" is invalid for field "batchSize"; must be positive`,
		},
		"ErrUnauthenticated": {
			&ErrUnauthenticated{Message: "Invalid username or password."},
			"Invalid username or password.",
		},
		"ErrInsufficientStock": {
			&ErrInsufficientStock{ProductID: "001", Requested: 5, Available: 2},
			"insufficient stock for product 001: requested 5, available 2",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	err := errors.Wrap(errors.WithStack(&ErrNotFound{Type: "user", Value: "bob"}), "login")
	var e *ErrNotFound
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "bob", e.Value)
}

func TestIsRetryablePostgresError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"nil":                 {nil, false},
		"plain error":         {errors.New("foo"), false},
		"serialization error": {&pgconn.PgError{Code: pgerrcode.SerializationFailure}, true},
		"connection failure":  {&pgconn.PgError{Code: pgerrcode.ConnectionFailure}, true},
		"too many conns":      {errors.WithStack(&pgconn.PgError{Code: pgerrcode.TooManyConnections}), true},
		"unique violation":    {&pgconn.PgError{Code: pgerrcode.UniqueViolation}, false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryablePostgresError(tc.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(errors.WithStack(&pgconn.PgError{Code: pgerrcode.UniqueViolation})))
	assert.False(t, IsUniqueViolation(errors.New("foo")))
}

func TestIsNetworkError(t *testing.T) {
	assert.False(t, IsNetworkError(nil))
	assert.False(t, IsNetworkError(errors.New("foo")))
	assert.True(t, IsNetworkError(errors.WithStack(&net.OpError{Op: "dial", Err: errors.New("refused")})))
}

func TestErrMaxRetriesExceededUnwrap(t *testing.T) {
	inner := &pgconn.PgError{Code: pgerrcode.ConnectionFailure}
	err := &ErrMaxRetriesExceeded{Message: "insert", LastError: inner}
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}
