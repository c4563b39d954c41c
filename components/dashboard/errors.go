package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-appinsights/components/tabular"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("dashboard: record not found")
	// ErrFetchFailure matches every FetchError.
	ErrFetchFailure = errors.New("dashboard: fetch failed")
	// ErrInvalidRecord is returned when a payload fails schema validation.
	ErrInvalidRecord = errors.New("dashboard: invalid record")
	// ErrUnknownCollection is returned for collection names the service does not serve.
	ErrUnknownCollection = errors.New("dashboard: unknown collection")
	// ErrInvalidQuery aliases the tabular sentinel so transports need one import.
	ErrInvalidQuery = tabular.ErrInvalidQuery
)

// NotFoundError reports an absent record.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	entity := e.Entity
	if entity == "" {
		entity = "Record"
	}
	return entity + " not found"
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FetchError wraps a data-source failure. The message is the underlying one.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return "fetch failed"
	}
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFetchFailure) match.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailure
}

// classify turns repository errors into the service error vocabulary.
func classify(op, entity string, id int, err error) error {
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	switch {
	case errors.As(err, &nf):
		return err
	case errors.Is(err, ErrNotFound):
		return &NotFoundError{Entity: entity, ID: id}
	case errors.Is(err, ErrInvalidRecord), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrFetchFailure):
		return err
	}
	return &FetchError{Op: op, Err: err}
}

func invalidRecord(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}
