// Package shader handles per-stage WGSL compilation and program introspection
// for the preview runtime. Compilation runs CPU-side through naga so compile
// diagnostics are available synchronously and verbatim; the GPU backend
// consumes the validated source when linking a render pipeline.
package shader

import (
	"github.com/gogpu/naga"
)

// Stage identifies which pipeline stage a shader source targets.
type Stage int

const (
	// StageVertex is the vertex stage, entry point vs_main.
	StageVertex Stage = iota

	// StageFragment is the fragment stage, entry point fs_main.
	StageFragment
)

// String returns the lowercase stage name used in diagnostics.
func (s Stage) String() string {
	if s == StageFragment {
		return "fragment"
	}
	return "vertex"
}

// shader is the implementation of the Shader interface.
// It holds the validated source and the metadata parsed from it.
type shader struct {
	stage      Stage
	source     string
	entryPoint string
	spirv      []byte
}

// Shader is a single compiled (validated) shader stage. It exposes the source
// the backend links from, the parsed entry point, and the SPIR-V produced by
// validation for tooling that wants it.
type Shader interface {
	// Stage returns the pipeline stage this shader targets.
	//
	// Returns:
	//   - Stage: StageVertex or StageFragment
	Stage() Stage

	// Source returns the WGSL source code of the shader.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// EntryPoint returns the entry point name parsed from the source
	// (the first @vertex or @fragment function, matching the stage).
	// Empty if the source declares no entry point for the stage.
	//
	// Returns:
	//   - string: the entry point name, or "" if absent
	EntryPoint() string

	// SPIRV returns the SPIR-V bytes produced by validation.
	// Little-endian 32-bit words.
	//
	// Returns:
	//   - []byte: the SPIR-V translation of the source
	SPIRV() []byte
}

var _ Shader = &shader{}

// Compile validates the given source for the given stage. The source is
// translated with naga; any translation failure is returned as a
// *CompileError carrying naga's diagnostic verbatim. Compile mutates no
// state — a failed compile leaves nothing behind.
//
// Parameters:
//   - stage: the pipeline stage the source targets
//   - source: the WGSL source text (unconstrained; validity is the compiler's concern)
//
// Returns:
//   - Shader: the validated shader, or nil on failure
//   - error: a *CompileError on failure, otherwise nil
func Compile(stage Stage, source string) (Shader, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, &CompileError{Stage: stage, Diagnostic: err.Error()}
	}

	return &shader{
		stage:      stage,
		source:     source,
		entryPoint: entryPointFor(stage, source),
		spirv:      spirv,
	}, nil
}

func (s *shader) Stage() Stage {
	return s.stage
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) SPIRV() []byte {
	return s.spirv
}
