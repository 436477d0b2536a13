package detect

import "fmt"

// NotFoundError reports a missing source file or rules directory.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("detection source not found: %s", e.Path)
}

// ContractError reports a source that materialized without the required
// predicate, or that references a detection absent from the catalog.
type ContractError struct {
	Source string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("detection %s violates the unit contract: %s", e.Source, e.Reason)
}

// LoadError wraps any fault raised while materializing a unit from its
// source, e.g. a malformed manifest.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load detection %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
