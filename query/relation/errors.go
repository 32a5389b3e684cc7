package relation

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAssociation is returned when a join or include names an
	// association the model does not declare.
	ErrUnknownAssociation = errors.New("unknown association")

	// ErrUnsupportedArgument is returned when a query method receives a
	// value it cannot interpret.
	ErrUnsupportedArgument = errors.New("unsupported argument")

	// ErrPolymorphicJoin is returned when a polymorphic belongs-to is joined
	// without a concrete target model.
	ErrPolymorphicJoin = errors.New("cannot join a polymorphic association without a target model")

	// ErrMissingPrimaryKey is returned when loaded rows lack the primary key
	// needed to attach associations.
	ErrMissingPrimaryKey = errors.New("missing primary key")
)

// ArgumentError reports an argument a query method could not use.
type ArgumentError struct {
	Method string
	Value  any
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %v: %T", e.Method, ErrUnsupportedArgument, e.Value)
}

// Is matches ErrUnsupportedArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrUnsupportedArgument
}

func unknownAssociation(model, name string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownAssociation, model, name)
}

// ErrBindVariables is returned when a raw SQL condition has a different
// number of ? placeholders than values.
var ErrBindVariables = errors.New("wrong number of bind variables")
