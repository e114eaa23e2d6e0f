package engine

import "errors"

// Structural errors indicate malformed test declarations. They abort the run
// immediately and are never downgraded to test failures.
var (
	ErrNoEnclosingScope       = errors.New("no enclosing scope")
	ErrDeclareDuringRun       = errors.New("declaration while a run is executing")
	ErrMultipleSubjectActions = errors.New("more than one subject action hook applies")
	ErrExpectOutsideTest      = errors.New("expect called outside a running test")
)

// structuralPanic carries a structural error out of arbitrarily nested user
// callbacks to the run boundary. It deliberately cannot be caught by script
// code.
type structuralPanic struct {
	err error
}
