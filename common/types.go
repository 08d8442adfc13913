// package common contains common types that are used throughout the preview runtime. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// UniformType is the closed set of value shapes a uniform can take.
// The type is decided at the call site and rejected (no-op) by the runtime
// if it does not match the shader-declared type from introspection.
type UniformType int

const (
	// UniformScalar is a single 32-bit float uniform.
	UniformScalar UniformType = iota

	// UniformVec2 is a two-component float vector uniform.
	UniformVec2

	// UniformVec3 is a three-component float vector uniform.
	UniformVec3

	// UniformVec4 is a four-component float vector uniform.
	UniformVec4
)

// Components returns the number of float components for the uniform type.
//
// Returns:
//   - int: 1 for scalar, 2/3/4 for the vector types, 0 for unknown values
func (t UniformType) Components() int {
	switch t {
	case UniformScalar:
		return 1
	case UniformVec2:
		return 2
	case UniformVec3:
		return 3
	case UniformVec4:
		return 4
	}
	return 0
}

// String returns the WGSL-flavored name of the uniform type.
func (t UniformType) String() string {
	switch t {
	case UniformScalar:
		return "f32"
	case UniformVec2:
		return "vec2<f32>"
	case UniformVec3:
		return "vec3<f32>"
	case UniformVec4:
		return "vec4<f32>"
	}
	return "unknown"
}

// UniformValue is a tagged uniform value. Construct with Scalar, Vec2, Vec3, or Vec4.
type UniformValue struct {
	// Type is the value's shape tag.
	Type UniformType

	// Data holds the component floats; only the first Type.Components() entries are meaningful.
	Data [4]float32
}

// Scalar builds a single-float UniformValue.
func Scalar(v float32) UniformValue {
	return UniformValue{Type: UniformScalar, Data: [4]float32{v}}
}

// Vec2 builds a two-component UniformValue.
func Vec2(x, y float32) UniformValue {
	return UniformValue{Type: UniformVec2, Data: [4]float32{x, y}}
}

// Vec3 builds a three-component UniformValue.
func Vec3(x, y, z float32) UniformValue {
	return UniformValue{Type: UniformVec3, Data: [4]float32{x, y, z}}
}

// Vec4 builds a four-component UniformValue.
func Vec4(x, y, z, w float32) UniformValue {
	return UniformValue{Type: UniformVec4, Data: [4]float32{x, y, z, w}}
}

// Floats returns the meaningful components as a slice.
//
// Returns:
//   - []float32: the first Type.Components() entries of Data
func (v UniformValue) Floats() []float32 {
	return v.Data[:v.Type.Components()]
}

// PointerPosition is the last known pointer position on a surface, in
// backing-store pixels with the origin at the bottom-left (Y increases upward).
type PointerPosition struct {
	X, Y float32
}
