package mcpregistry

import "fmt"

// MissingRequiredParameterError is returned by EnrichArguments when a
// required parameter has no value and no default.
type MissingRequiredParameterError struct {
	Name string
}

func (e *MissingRequiredParameterError) Error() string {
	return fmt.Sprintf("Missing required parameter '%s'", e.Name)
}

// NewMissingRequiredParameter constructs a MissingRequiredParameterError.
func NewMissingRequiredParameter(name string) error {
	return &MissingRequiredParameterError{Name: name}
}

// InvalidArgumentTypeError is returned when a supplied argument cannot be
// coerced to the type its schema declares.
type InvalidArgumentTypeError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *InvalidArgumentTypeError) Error() string {
	return fmt.Sprintf("invalid argument '%s': expected %s, got %s", e.Name, e.Expected, e.Actual)
}

// UnknownTypeError describes a lookup of tools/resources/prompts for a type
// that was never registered. Registry lookups do not return it: they report
// an unregistered type as a nil list or a false ok.
type UnknownTypeError struct {
	Kind string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no %s registered for this type", e.Kind)
}
