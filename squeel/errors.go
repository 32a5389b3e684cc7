package squeel

import (
	"errors"
	"fmt"
)

var (
	// ErrAssociationComparison is returned when an association is compared
	// to something other than a record or nil.
	ErrAssociationComparison = errors.New("invalid association comparison")

	// ErrUnresolvedName is returned when no resolution strategy accepts a
	// name.
	ErrUnresolvedName = errors.New("unresolved name")

	// ErrUnknownSifter is returned by Sift for names no sifter is defined
	// for.
	ErrUnknownSifter = errors.New("unknown sifter")
)

// AssociationComparisonError describes an invalid association comparison.
type AssociationComparisonError struct {
	Association string
	Value       any
}

// Error implements the error interface.
func (e *AssociationComparisonError) Error() string {
	return fmt.Sprintf("%v: %s cannot be compared to %T", ErrAssociationComparison, e.Association, e.Value)
}

// Unwrap returns ErrAssociationComparison.
func (e *AssociationComparisonError) Unwrap() error {
	return ErrAssociationComparison
}

// ResolveError reports a name that could not be resolved on a table.
type ResolveError struct {
	Table string
	Name  string
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("%v: %s.%s", ErrUnresolvedName, e.Table, e.Name)
}

// Unwrap returns ErrUnresolvedName.
func (e *ResolveError) Unwrap() error {
	return ErrUnresolvedName
}
