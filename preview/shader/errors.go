package shader

import "fmt"

// CompileError is a per-stage compilation failure. The Diagnostic is the
// compiler's message passed through verbatim — no parsing or classification
// beyond the stage of origin. The previously installed program, if any,
// survives a compile failure untouched.
type CompileError struct {
	// Stage is the stage whose source failed to compile.
	Stage Stage

	// Diagnostic is the compiler's error text, verbatim.
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader compile error: %s", e.Stage, e.Diagnostic)
}

// LinkError is a program link failure: both stages compiled but the pipeline
// could not be created from them (missing entry point, interface mismatch,
// device error). After a link failure no program is active — the render loop
// draws nothing until a subsequent update succeeds.
type LinkError struct {
	// Diagnostic is the linker/device error text, verbatim.
	Diagnostic string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("program link error: %s", e.Diagnostic)
}
