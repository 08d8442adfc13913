// Package program models a linked shader program: a validated vertex stage, a
// validated fragment stage, the reflection data introspected from them, and
// the backend-owned GPU handles created at link time. At most one program is
// live per runtime instance; installing a new one destroys the old one first.
package program

import (
	"github.com/Carmen-Shannon/shaderview-go/preview/shader"
)

// program is the implementation of the Program interface.
// It holds the two validated stages plus the opaque handles the backend
// attaches when the program is linked.
type program struct {
	vertex     shader.Shader
	fragment   shader.Shader
	reflection *shader.Reflection

	// pipelineHandle is the backend's linked pipeline object (e.g. *wgpu.RenderPipeline).
	pipelineHandle any

	// meshHandle is the backend's vertex/index buffer set for the current geometry.
	meshHandle any

	// uniformHandle is the backend's uniform buffer + bind group for this program.
	uniformHandle any
}

// Program is a linked pair of compiled shader stages ready for drawing,
// together with the uniform binding table introspected from the sources.
// GPU-side state is attached by the backend as opaque handles.
type Program interface {
	// Vertex returns the validated vertex stage.
	//
	// Returns:
	//   - shader.Shader: the vertex shader
	Vertex() shader.Shader

	// Fragment returns the validated fragment stage.
	//
	// Returns:
	//   - shader.Shader: the fragment shader
	Fragment() shader.Shader

	// Reflection returns the introspection data for the source pair:
	// entry points, consumed vertex attributes, and the uniform table.
	//
	// Returns:
	//   - *shader.Reflection: the program's reflection data
	Reflection() *shader.Reflection

	// Uniforms returns the program's uniform binding table. Rebuilt from
	// scratch for every program; never shared between programs.
	//
	// Returns:
	//   - *shader.UniformTable: the name-to-binding mapping
	Uniforms() *shader.UniformTable

	// PipelineHandle returns the backend's linked pipeline object, or nil
	// if the program has not been linked.
	PipelineHandle() any

	// SetPipelineHandle attaches the backend's linked pipeline object.
	SetPipelineHandle(h any)

	// MeshHandle returns the backend's vertex/index buffer set for the
	// currently bound geometry, or nil if none has been built.
	MeshHandle() any

	// SetMeshHandle attaches the backend's vertex/index buffer set.
	SetMeshHandle(h any)

	// UniformHandle returns the backend's uniform buffer state, or nil.
	UniformHandle() any

	// SetUniformHandle attaches the backend's uniform buffer state.
	SetUniformHandle(h any)
}

var _ Program = &program{}

// NewProgram creates a Program from two validated stages and their reflection.
// The program carries no GPU state until the backend links it.
//
// Parameters:
//   - vertex: the validated vertex stage
//   - fragment: the validated fragment stage
//   - reflection: introspection data for the source pair
//
// Returns:
//   - Program: the unlinked program
func NewProgram(vertex, fragment shader.Shader, reflection *shader.Reflection) Program {
	return &program{
		vertex:     vertex,
		fragment:   fragment,
		reflection: reflection,
	}
}

func (p *program) Vertex() shader.Shader {
	return p.vertex
}

func (p *program) Fragment() shader.Shader {
	return p.fragment
}

func (p *program) Reflection() *shader.Reflection {
	return p.reflection
}

func (p *program) Uniforms() *shader.UniformTable {
	return p.reflection.Uniforms
}

func (p *program) PipelineHandle() any {
	return p.pipelineHandle
}

func (p *program) SetPipelineHandle(h any) {
	p.pipelineHandle = h
}

func (p *program) MeshHandle() any {
	return p.meshHandle
}

func (p *program) SetMeshHandle(h any) {
	p.meshHandle = h
}

func (p *program) UniformHandle() any {
	return p.uniformHandle
}

func (p *program) SetUniformHandle(h any) {
	p.uniformHandle = h
}
