package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModel is returned when a model name is not registered.
	ErrUnknownModel = errors.New("unknown model")

	// ErrDuplicateModel is returned when two models share a name.
	ErrDuplicateModel = errors.New("duplicate model")

	// ErrInvalidAssociation is returned for associations that cannot be
	// resolved against the registry.
	ErrInvalidAssociation = errors.New("invalid association")
)

// AssociationError describes a problem with one association.
type AssociationError struct {
	Model       string
	Association string
	Reason      string
	Cause       error
}

// Error implements the error interface.
func (e *AssociationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Model, e.Association, e.Reason)
}

// Unwrap returns the underlying error.
func (e *AssociationError) Unwrap() error {
	return e.Cause
}
