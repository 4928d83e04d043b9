package pattern

import "fmt"

// ResolutionError is returned when a pattern references a variable with no
// binding in the lookup environment. Per spec §7 this is non-fatal: callers
// print it and keep the loop running; the dispatcher plays nothing for
// that loop on the beat where the error occurs.
type ResolutionError struct {
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("undefined variable: %q", e.Name)
}

func undefinedVariableError(name string) error {
	return &ResolutionError{Name: name}
}
